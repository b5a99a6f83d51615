package flowfile

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/pkg/action"
	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/schema"
)

// Compile builds a session from the flow definition. Variables are
// registered first, then the step tree, then actions and their bindings.
func (f *Flow) Compile(opts ...stepflow.Option) (*stepflow.Session, error) {
	session := stepflow.NewSession(opts...)

	varIDs := make(map[string]schema.VarID, len(f.Vars))
	for _, def := range f.Vars {
		id, err := registerVar(session, def)
		if err != nil {
			return nil, err
		}
		varIDs[def.Name] = id
	}

	for _, def := range f.Steps {
		id, err := registerStep(session, def, varIDs)
		if err != nil {
			return nil, err
		}
		session.PushRootSubstep(id)
	}

	for _, def := range f.Actions {
		if err := registerAction(session, def); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// Validate compiles the flow and throws the session away, reporting the
// first definition error.
func (f *Flow) Validate() error {
	_, err := f.Compile()
	return err
}

func registerVar(session *stepflow.Session, def VarDef) (schema.VarID, error) {
	if def.Name == "" {
		return 0, fmt.Errorf("var missing name")
	}

	var build func(schema.VarID) (schema.Var, error)
	switch def.Type {
	case "string", "":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewStringVar(id), nil }
	case "bool":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewBoolVar(id), nil }
	case "float":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewFloatVar(id), nil }
	case "time":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewTimeVar(id), nil }
	case "email":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewEmailVar(id), nil }
	case "uri":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewURIVar(id), nil }
	case "true":
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewTrueVar(id), nil }
	case "one_of":
		if len(def.Options) == 0 {
			return 0, fmt.Errorf("var %q: one_of needs options", def.Name)
		}
		options := def.Options
		build = func(id schema.VarID) (schema.Var, error) { return schema.NewOneOfVar(id, options...), nil }
	default:
		return 0, fmt.Errorf("var %q: unknown type %q", def.Name, def.Type)
	}

	id, err := session.Vars().InsertNewNamed(def.Name, build)
	if err != nil {
		return 0, fmt.Errorf("var %q: %w", def.Name, err)
	}
	return id, nil
}

func resolveVarNames(names []string, varIDs map[string]schema.VarID, step string) ([]schema.VarID, error) {
	if len(names) == 0 {
		return nil, nil
	}
	ids := make([]schema.VarID, len(names))
	for i, name := range names {
		id, ok := varIDs[name]
		if !ok {
			return nil, fmt.Errorf("step %q: unknown var %q", step, name)
		}
		ids[i] = id
	}
	return ids, nil
}

func registerStep(session *stepflow.Session, def StepDef, varIDs map[string]schema.VarID) (domain.StepID, error) {
	if def.Name == "" {
		return 0, fmt.Errorf("step missing name")
	}

	inputs, err := resolveVarNames(def.Inputs, varIDs, def.Name)
	if err != nil {
		return 0, err
	}
	outputs, err := resolveVarNames(def.Outputs, varIDs, def.Name)
	if err != nil {
		return 0, err
	}

	id, err := session.Steps().InsertNewNamed(def.Name, func(id domain.StepID) (*domain.Step, error) {
		return domain.NewStep(id, inputs, outputs), nil
	})
	if err != nil {
		return 0, fmt.Errorf("step %q: %w", def.Name, err)
	}

	step, _ := session.Steps().Get(id)
	for _, sub := range def.Substeps {
		subID, err := registerStep(session, sub, varIDs)
		if err != nil {
			return 0, err
		}
		step.PushSubstep(subID)
	}
	return id, nil
}

// Per-type action configs, decoded from the free-form config block.

type uriConfig struct {
	Base string `mapstructure:"base"`
}

type htmlFormConfig struct {
	StringTemplate string `mapstructure:"string_template"`
	URITemplate    string `mapstructure:"uri_template"`
	EmailTemplate  string `mapstructure:"email_template"`
	BoolTemplate   string `mapstructure:"bool_template"`
	FloatTemplate  string `mapstructure:"float_template"`
	TimeTemplate   string `mapstructure:"time_template"`
	Prefix         string `mapstructure:"prefix"`
	WrapTag        string `mapstructure:"wrap_tag"`
}

type templateConfig struct {
	Template string `mapstructure:"template"`
	Escape   string `mapstructure:"escape"`
}

type setDataConfig struct {
	Values       map[string]string `mapstructure:"values"`
	AfterAttempt uint64            `mapstructure:"after_attempt"`
}

func registerAction(session *stepflow.Session, def ActionDef) error {
	if def.Name == "" {
		return fmt.Errorf("action missing name")
	}

	var build func(action.ActionID) (action.Action, error)
	switch def.Type {
	case "uri":
		var cfg uriConfig
		if err := mapstructure.Decode(def.Config, &cfg); err != nil {
			return fmt.Errorf("action %q: %w", def.Name, err)
		}
		if cfg.Base == "" {
			return fmt.Errorf("action %q: uri needs base", def.Name)
		}
		build = func(id action.ActionID) (action.Action, error) {
			return action.NewURIAction(id, cfg.Base), nil
		}
	case "html_form":
		var cfg htmlFormConfig
		if err := mapstructure.Decode(def.Config, &cfg); err != nil {
			return fmt.Errorf("action %q: %w", def.Name, err)
		}
		formCfg := action.DefaultHTMLFormConfig()
		if cfg.StringTemplate != "" {
			formCfg.StringTemplate = cfg.StringTemplate
		}
		if cfg.URITemplate != "" {
			formCfg.URITemplate = cfg.URITemplate
		}
		if cfg.EmailTemplate != "" {
			formCfg.EmailTemplate = cfg.EmailTemplate
		}
		if cfg.BoolTemplate != "" {
			formCfg.BoolTemplate = cfg.BoolTemplate
		}
		if cfg.FloatTemplate != "" {
			formCfg.FloatTemplate = cfg.FloatTemplate
		}
		if cfg.TimeTemplate != "" {
			formCfg.TimeTemplate = cfg.TimeTemplate
		}
		formCfg.PrefixTemplate = cfg.Prefix
		formCfg.WrapTag = cfg.WrapTag
		build = func(id action.ActionID) (action.Action, error) {
			return action.NewHTMLFormAction(id, formCfg), nil
		}
	case "template":
		var cfg templateConfig
		if err := mapstructure.Decode(def.Config, &cfg); err != nil {
			return fmt.Errorf("action %q: %w", def.Name, err)
		}
		if cfg.Template == "" {
			return fmt.Errorf("action %q: template needs template", def.Name)
		}
		var escape action.Escaper
		switch cfg.Escape {
		case "uri":
			escape = action.PathEscaper
		case "html":
			escape = action.AttributeEscaper
		case "none", "":
			escape = nil
		default:
			return fmt.Errorf("action %q: unknown escape %q", def.Name, cfg.Escape)
		}
		build = func(id action.ActionID) (action.Action, error) {
			return action.NewTemplateAction(id, cfg.Template, escape), nil
		}
	case "set_data":
		var cfg setDataConfig
		if err := mapstructure.Decode(def.Config, &cfg); err != nil {
			return fmt.Errorf("action %q: %w", def.Name, err)
		}
		data := schema.NewStateData()
		for name, raw := range cfg.Values {
			v, ok := session.Vars().GetByName(name)
			if !ok {
				return fmt.Errorf("action %q: unknown var %q", def.Name, name)
			}
			val, err := v.ValueFromString(raw)
			if err != nil {
				return fmt.Errorf("action %q: value for %q: %w", def.Name, name, err)
			}
			if err := data.Insert(v, val); err != nil {
				return fmt.Errorf("action %q: value for %q: %w", def.Name, name, err)
			}
		}
		build = func(id action.ActionID) (action.Action, error) {
			return action.NewSetDataAction(id, data, cfg.AfterAttempt), nil
		}
	default:
		return fmt.Errorf("action %q: unknown type %q", def.Name, def.Type)
	}

	id, err := session.Actions().InsertNewNamed(def.Name, build)
	if err != nil {
		return fmt.Errorf("action %q: %w", def.Name, err)
	}

	if len(def.Bind) == 0 {
		session.BindDefaultAction(id)
		return nil
	}
	for _, stepName := range def.Bind {
		stepID, ok := session.Steps().IDFromName(stepName)
		if !ok {
			return fmt.Errorf("action %q: unknown step %q in bind", def.Name, stepName)
		}
		session.BindAction(id, stepID)
	}
	return nil
}
