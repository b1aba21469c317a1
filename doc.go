// Package mushroomid provides top-level documentation for the
// Mushroom-AI-Identifier module. The module is organized as multiple
// subpackages (e.g. `knowledge`, `embedding`, `rag`, `prompt`, `llm`,
// `agent`, `session`, `vision`, `observability`, `server`).
//
// Importers typically depend on the subpackages directly, for example:
//
//	import (
//	  "github.com/Bartekp26/Mushroom-AI-Identifier/agent"
//	  "github.com/Bartekp26/Mushroom-AI-Identifier/rag"
//	  "github.com/Bartekp26/Mushroom-AI-Identifier/llm/gemini"
//	)
//
// The root package intentionally keeps a small surface area to avoid
// stuttering and to keep subpackages composable.
package mushroomid
