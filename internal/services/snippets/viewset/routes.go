package viewset

import (
	"fmt"
	"net/url"
	"strings"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
)

// Logical view names of a snippet viewset.
const (
	ViewList                  = "list"
	ViewListResults           = "list_results"
	ViewAdd                   = "add"
	ViewEdit                  = "edit"
	ViewDelete                = "delete"
	ViewUsage                 = "usage"
	ViewHistory               = "history"
	ViewUnpublish             = "unpublish"
	ViewRevisionsRevert       = "revisions_revert"
	ViewRevisionsCompare      = "revisions_compare"
	ViewRevisionsUnschedule   = "revisions_unschedule"
	ViewWorkflowHistory       = "workflow_history"
	ViewWorkflowHistoryDetail = "workflow_history_detail"
)

// Logical view names of a chooser viewset.
const (
	ViewChoose        = "choose"
	ViewChooseResults = "choose_results"
	ViewChosen        = "chosen"
)

// ErrUnknownView matches (via errors.Is) lookups of undeclared view names.
var ErrUnknownView = apperrors.New(apperrors.CodeUnknownView, "unknown view")

// route is one named path pattern relative to a viewset base path.
// Placeholders are written {name}; one segment may hold several, separated
// by literal text, e.g. "{revision_id_a}...{revision_id_b}".
type route struct {
	name    string
	pattern string
}

var snippetRoutes = []route{
	{name: ViewList, pattern: ""},
	{name: ViewListResults, pattern: "results/"},
	{name: ViewAdd, pattern: "add/"},
	{name: ViewEdit, pattern: "edit/{pk}/"},
	{name: ViewDelete, pattern: "delete/{pk}/"},
	{name: ViewUsage, pattern: "usage/{pk}/"},
	{name: ViewHistory, pattern: "history/{pk}/"},
	{name: ViewUnpublish, pattern: "unpublish/{pk}/"},
	{name: ViewRevisionsRevert, pattern: "history/{pk}/revisions/{revision_id}/revert/"},
	{name: ViewRevisionsCompare, pattern: "history/{pk}/revisions/compare/{revision_id_a}...{revision_id_b}/"},
	{name: ViewRevisionsUnschedule, pattern: "history/{pk}/revisions/{revision_id}/unschedule/"},
	{name: ViewWorkflowHistory, pattern: "workflow_history/{pk}/"},
	{name: ViewWorkflowHistoryDetail, pattern: "workflow_history/{pk}/detail/{workflow_state_id}/"},
}

var chooserRoutes = []route{
	{name: ViewChoose, pattern: ""},
	{name: ViewChooseResults, pattern: "results/"},
	{name: ViewChosen, pattern: "chosen/{pk}/"},
}

type token struct {
	literal     string
	placeholder bool
}

// tokenize splits one path segment into literal and placeholder tokens.
func tokenize(segment string) []token {
	var tokens []token
	for segment != "" {
		open := strings.IndexByte(segment, '{')
		if open == -1 {
			tokens = append(tokens, token{literal: segment})
			break
		}
		if open > 0 {
			tokens = append(tokens, token{literal: segment[:open]})
		}
		closeIdx := strings.IndexByte(segment[open:], '}')
		if closeIdx == -1 {
			tokens = append(tokens, token{literal: segment[open:]})
			break
		}
		tokens = append(tokens, token{literal: segment[open+1 : open+closeIdx], placeholder: true})
		segment = segment[open+closeIdx+1:]
	}
	return tokens
}

func (r route) placeholders() int {
	count := 0
	for _, segment := range strings.Split(r.pattern, "/") {
		for _, tok := range tokenize(segment) {
			if tok.placeholder {
				count++
			}
		}
	}
	return count
}

// reverse fills placeholders in order, escaping each argument.
func (r route) reverse(args []string) (string, error) {
	if want := r.placeholders(); want != len(args) {
		return "", apperrors.WithMetadata(apperrors.CodeRouteArgs,
			fmt.Sprintf("view %q takes %d arguments, got %d", r.name, want, len(args)),
			map[string]string{"view": r.name})
	}
	segments := strings.Split(r.pattern, "/")
	next := 0
	for i, segment := range segments {
		tokens := tokenize(segment)
		var b strings.Builder
		for _, tok := range tokens {
			if !tok.placeholder {
				b.WriteString(tok.literal)
				continue
			}
			arg := strings.TrimSpace(args[next])
			next++
			if arg == "" {
				return "", apperrors.WithMetadata(apperrors.CodeRouteArgs,
					fmt.Sprintf("view %q argument %q is empty", r.name, tok.literal),
					map[string]string{"view": r.name})
			}
			escaped := url.PathEscape(arg)
			// A placeholder sharing its segment with a separator must not
			// contain that separator or matching would split it differently.
			for _, sep := range tokens {
				if !sep.placeholder && sep.literal != "" && strings.Contains(escaped, sep.literal) {
					return "", apperrors.WithMetadata(apperrors.CodeRouteArgs,
						fmt.Sprintf("view %q argument %q must not contain %q", r.name, arg, sep.literal),
						map[string]string{"view": r.name})
				}
			}
			b.WriteString(escaped)
		}
		segments[i] = b.String()
	}
	return strings.Join(segments, "/"), nil
}

// match reports whether rel (relative to the base path, with trailing
// slash) matches the pattern and returns the unescaped arguments.
func (r route) match(rel string) ([]string, bool) {
	patternSegments := strings.Split(r.pattern, "/")
	pathSegments := strings.Split(rel, "/")
	if len(patternSegments) != len(pathSegments) {
		return nil, false
	}
	var args []string
	for i, segment := range patternSegments {
		captured, ok := matchSegment(tokenize(segment), pathSegments[i])
		if !ok {
			return nil, false
		}
		args = append(args, captured...)
	}
	return args, true
}

func matchSegment(tokens []token, segment string) ([]string, bool) {
	var args []string
	rest := segment
	for i, tok := range tokens {
		if !tok.placeholder {
			if !strings.HasPrefix(rest, tok.literal) {
				return nil, false
			}
			rest = rest[len(tok.literal):]
			continue
		}
		value := rest
		if i+1 < len(tokens) {
			end := strings.Index(rest, tokens[i+1].literal)
			if end == -1 {
				return nil, false
			}
			value = rest[:end]
		}
		if value == "" {
			return nil, false
		}
		unescaped, err := url.PathUnescape(value)
		if err != nil {
			return nil, false
		}
		args = append(args, unescaped)
		rest = rest[len(value):]
	}
	if rest != "" {
		return nil, false
	}
	return args, true
}

// routeTable resolves view names and paths under one base path.
type routeTable struct {
	adminPrefix string
	basePath    string
	routes      []route
}

func (t routeTable) find(view string) (route, bool) {
	for _, r := range t.routes {
		if r.name == view {
			return r, true
		}
	}
	return route{}, false
}

// Root is the absolute path of the base path, with trailing slash.
func (t routeTable) root() string {
	return t.adminPrefix + t.basePath + "/"
}

func (t routeTable) reverse(view string, args []string) (string, error) {
	r, ok := t.find(view)
	if !ok {
		return "", apperrors.Wrap(apperrors.CodeUnknownView, fmt.Sprintf("view %q", view), ErrUnknownView)
	}
	rel, err := r.reverse(args)
	if err != nil {
		return "", err
	}
	return t.root() + rel, nil
}

func (t routeTable) match(path string) (string, []string, bool) {
	root := t.root()
	if !strings.HasPrefix(path, root) {
		return "", nil, false
	}
	rel := strings.TrimPrefix(path, root)
	for _, r := range t.routes {
		if args, ok := r.match(rel); ok {
			return r.name, args, true
		}
	}
	return "", nil, false
}
