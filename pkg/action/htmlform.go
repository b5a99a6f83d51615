package action

import (
	"html"
	"strings"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/registry"
	"github.com/aretw0/stepflow/pkg/schema"
)

// HTMLFormConfig controls the markup emitted per variable type. Templates
// substitute {{name}} with the attribute-escaped variable name.
type HTMLFormConfig struct {
	StringTemplate string
	URITemplate    string
	EmailTemplate  string
	BoolTemplate   string
	FloatTemplate  string
	TimeTemplate   string

	// PrefixTemplate is rendered before each input, e.g. a label.
	PrefixTemplate string
	// WrapTag wraps each rendered input, e.g. "div".
	WrapTag string
}

// DefaultHTMLFormConfig returns plain unstyled inputs.
func DefaultHTMLFormConfig() HTMLFormConfig {
	return HTMLFormConfig{
		StringTemplate: "<input name='{{name}}' />",
		URITemplate:    "<input name='{{name}}' type='url' />",
		EmailTemplate:  "<input name='{{name}}' type='email' />",
		BoolTemplate:   "<input name='{{name}}' type='checkbox' />",
		FloatTemplate:  "<input name='{{name}}' type='number' />",
		TimeTemplate:   "<input name='{{name}}' type='datetime-local' />",
	}
}

func (c *HTMLFormConfig) renderInput(tmpl, escapedName string) string {
	var b strings.Builder
	if c.WrapTag != "" {
		b.WriteString("<" + c.WrapTag + ">")
	}
	if c.PrefixTemplate != "" {
		b.WriteString(strings.ReplaceAll(c.PrefixTemplate, "{{name}}", escapedName))
	}
	b.WriteString(strings.ReplaceAll(tmpl, "{{name}}", escapedName))
	if c.WrapTag != "" {
		b.WriteString("</" + c.WrapTag + ">")
	}
	return b.String()
}

func (c *HTMLFormConfig) templateFor(v schema.Var) (string, bool) {
	switch v.(type) {
	case *schema.StringVar, *schema.OneOfVar:
		return c.StringTemplate, true
	case *schema.URIVar:
		return c.URITemplate, true
	case *schema.EmailVar:
		return c.EmailTemplate, true
	case *schema.BoolVar, *schema.TrueVar:
		return c.BoolTemplate, true
	case *schema.FloatVar:
		return c.FloatTemplate, true
	case *schema.TimeVar:
		return c.TimeTemplate, true
	default:
		return "", false
	}
}

// HTMLFormAction renders an input per output variable of the step and
// starts with the concatenated markup as a string value.
type HTMLFormAction struct {
	id     ActionID
	config HTMLFormConfig
}

func NewHTMLFormAction(id ActionID, config HTMLFormConfig) *HTMLFormAction {
	return &HTMLFormAction{id: id, config: config}
}

func (a *HTMLFormAction) ID() ActionID { return a.id }

func (a *HTMLFormAction) Start(step *domain.Step, _ string, _ *schema.FilteredData, vars *registry.Filtered[schema.Var, schema.VarID]) (Result, error) {
	var b strings.Builder
	for _, varID := range step.OutputVars() {
		v, ok := vars.Get(varID)
		if !ok {
			return Result{}, &VarInvalidError{Var: varID}
		}
		tmpl, ok := a.config.templateFor(v)
		if !ok {
			return Result{}, &VarInvalidError{Var: varID}
		}

		name, ok := vars.NameFromID(varID)
		if !ok {
			name = varID.String()
		}
		b.WriteString(a.config.renderInput(tmpl, html.EscapeString(name)))
	}

	val, err := schema.NewStringValue(b.String())
	if err != nil {
		return Result{}, err
	}
	return StartWith(val), nil
}
