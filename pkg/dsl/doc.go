/*
Package dsl provides a Go DSL for programmatically constructing intent graphs.

It lets hosts and tests declare intents and transitions with a fluent builder
instead of hand-writing JSON or YAML snapshots. The result is checked the
same way an editor seed is.

Example usage:

	b := dsl.New()
	b.Intent("order").
		Label("Order pizza").
		Phrases("I want a pizza", "order").
		Responds("Which size?").
		At(500, 250)
	b.Intent(domain.GreetID).Go("order")

	g, err := b.Build()
	if err != nil {
		// ...
	}
	ed, err := intentflow.New(intentflow.WithSeed(g))
*/
package dsl
