/*
Package domain contains the core model of the advancement engine: the Step
tree and its entry/exit gating.

A Step declares the inputs it needs before it can be entered, the outputs it
must fulfill before it can be exited, and an ordered list of substeps that
defines the default root-to-leaf execution order. Steps are registered once
and referenced by StepID; the tree is expressed as parent → children id
links, not as owned recursive structures.

This package is kept pure: no I/O, no persistence, no action dispatch.
*/
package domain
