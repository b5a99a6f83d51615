package action

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// URIAction starts steps by handing back a URI built from a base path and
// the step's name, or its numeric id when unnamed. An HTTP driver turns
// the value into a redirect.
type URIAction struct {
	id   ActionID
	base string
}

func NewURIAction(id ActionID, baseURI string) *URIAction {
	return &URIAction{id: id, base: baseURI}
}

func (a *URIAction) ID() ActionID { return a.id }

func (a *URIAction) Start(step *domain.Step, stepName string, _ *schema.FilteredData, _ *registry.Filtered[schema.Var, schema.VarID]) (Result, error) {
	segment := strconv.FormatUint(uint64(step.ID()), 10)
	if stepName != "" {
		segment = url.PathEscape(stepName)
	}

	val, err := schema.NewURIValue(joinPath(a.base, segment))
	if err != nil {
		return Result{}, err
	}
	return StartWith(val), nil
}

// joinPath joins base and suffix with exactly one slash between them.
func joinPath(base, suffix string) string {
	switch {
	case strings.HasSuffix(base, "/") && strings.HasPrefix(suffix, "/"):
		return base + suffix[1:]
	case !strings.HasSuffix(base, "/") && !strings.HasPrefix(suffix, "/"):
		return base + "/" + suffix
	default:
		return base + suffix
	}
}
