// Package tools holds the tool registry and the function dispatcher.
//
// A Registry is built once at startup from a Builder and never changes:
//
//	doc, err := tools.LoadDocument("configs/tools.json")
//	reg, err := tools.NewBuilder().
//		Register("read_file", readFile, doc.Tools[0]).
//		Build()
//
// A Dispatcher resolves invocations against the registry, validates their
// parameters with the declared JSON Schema and runs the handler. Every
// failure becomes an Outcome that encodes as {"error": "..."}; unknown
// names yield "Function <name> not found".
package tools
