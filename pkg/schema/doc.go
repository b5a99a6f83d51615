// Package schema is the typed value system of the engine.
//
// It defines a closed set of base kinds (string, bool, float, time), concrete
// Value types over those kinds, and semantic subtypes layered on a base kind
// plus a validator (EmailValue is a string that parses as an e-mail address,
// TrueValue is a bool fixed to true, and so on).
//
// A Var declares the value a flow expects for one slot: a concrete value type
// plus zero or more refinement predicates, run in declaration order. The only
// way a value enters a StateData store is as a ValidVal, produced by checking
// a Value against a specific Var:
//
//	v, _ := schema.NewStringVar(id)
//	val, err := v.ValueFromString("Ann")
//	vv, err := schema.NewValidVal(val, v)
//
// Narrowing a generic Value or Var to its concrete type goes through As and
// Is; a failed narrow is a normal (zero, false), never an error:
//
//	if email, ok := schema.As[*schema.EmailValue](val); ok {
//	    _ = email.Val()
//	}
//
// Two semantic subtypes sharing a base kind are never substitutable: an
// EmailVar rejects a plain StringValue even when the text would pass the
// e-mail validator, because validation is carried by the value's identity,
// not re-derived from its content.
package schema
