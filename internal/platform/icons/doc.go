// Package icons lists the admin icon names and renders SVG references to
// the shared sprite.
//
// Views pick icons by name; the sprite served under the static prefix holds
// one <symbol> per catalog entry.
package icons
