package action

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// Escaper encodes values interpolated into a template. The template itself
// is taken as already escaped.
type Escaper func(string) string

// PathEscaper escapes for URI path segments.
func PathEscaper(s string) string { return url.PathEscape(s) }

// AttributeEscaper escapes for HTML attribute values.
func AttributeEscaper(s string) string {
	return strings.NewReplacer(
		"&", "&amp;", "<", "&lt;", ">", "&gt;", "'", "&#39;", `"`, "&#34;",
	).Replace(s)
}

// TemplateAction starts with a string rendered from a template. The only
// parameter is {{step}}, replaced with the step name or its numeric id.
type TemplateAction struct {
	id       ActionID
	template string
	escape   Escaper
}

// NewTemplateAction builds the action. template must already be escaped
// for its target context; escape is applied to interpolated parameters.
func NewTemplateAction(id ActionID, template string, escape Escaper) *TemplateAction {
	if escape == nil {
		escape = func(s string) string { return s }
	}
	return &TemplateAction{id: id, template: template, escape: escape}
}

func (a *TemplateAction) ID() ActionID { return a.id }

func (a *TemplateAction) Start(step *domain.Step, stepName string, _ *schema.FilteredData, _ *registry.Filtered[schema.Var, schema.VarID]) (Result, error) {
	name := stepName
	if name == "" {
		name = strconv.FormatUint(uint64(step.ID()), 10)
	}

	rendered := strings.ReplaceAll(a.template, "{{step}}", a.escape(name))
	val, err := schema.NewStringValue(rendered)
	if err != nil {
		return Result{}, err
	}
	return StartWith(val), nil
}
