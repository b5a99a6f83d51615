/*
Package action defines the units of work that fulfill steps.

An Action is asked to start whenever the engine needs a step's outputs
fulfilled. It answers with one of three results: Finished carries output
data ready to merge into session state, StartWith hands back a value that
an outer driver must act on (typically a URI or rendered form), and
CannotFulfill declines so the engine can try a fallback.

The package ships the built-in actions used by most flows: SetDataAction,
URIAction, HTMLFormAction, TemplateAction and CallbackAction.
*/
package action
