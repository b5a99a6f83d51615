// Package ports declares the interfaces the engine expects from the
// outside world, keeping adapters swappable.
package ports
