// Package prompt assembles the text sent to the generator: the mycologist
// persona, retrieved knowledge base documents and either a free-form
// question or a structured identification task. Output is deterministic for
// a given input.
package prompt

import (
	"fmt"
	"strings"

	"github.com/Bartekp26/Mushroom-AI-Identifier/rag"
	"github.com/Bartekp26/Mushroom-AI-Identifier/vision"
)

// DefaultConfidenceThreshold is the classifier confidence below which the
// identification task asks the generator to demand expert verification.
const DefaultConfidenceThreshold = 0.90

// SystemInstructions is the mycologist persona with its five hard rules.
// It is installed as the chat session's system instruction and repeated at
// the top of every turn's context.
const SystemInstructions = `You are an expert mycologist - a mushroom specialist.

CRITICAL RULES:
1. Answer ONLY based on the provided MUSHROOM KNOWLEDGE BASE documents
2. If information is not in the provided documents, clearly state: "This information is not available in my knowledge base"
3. For POISONOUS/TOXIC mushrooms, emphasize warnings STRONGLY with emojis (🚨⚠️💀)
4. Never make up information - only use what's in the provided documents
5. If the species is not specified in question answer about primary species or alternative species

OUTPUT FORMAT:
- For the FIRST identification query: Use the structured format below
- For follow-up questions: Respond conversationally and concisely

STRUCTURED FORMAT (first query only):
Name: [Common Name] ([Scientific Name])
Confidence: [Confidence]

Safety Status:
✅ EDIBLE / ⚠️ POISONOUS / 💀 DEADLY POISONOUS
[Brief safety note]

Key Identification Features:
- Cap: [description]
- Stem: [description]
- Gills/Pores: [description]
- Distinctive traits: [unique features]

Location, Habitat & Season:
- Geographic range: [location]
- Habitat: [where it grows]
- Season: [when it appears]

Look-alikes:
- [Any dangerous similar species]

Alternative predictions:
- [All alternative predictions]

Keep all descriptions very concise - only few words per point.`

// FormatPercent renders a confidence in [0,1] as a percentage with two
// decimals, e.g. 0.75 -> "75.00%".
func FormatPercent(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}

// BuildContext assembles the follow-up turn: system instructions, retrieved
// documents with 1-based positions and 3-decimal relevance scores, the
// user's question verbatim, and the closing directive.
func BuildContext(docs []rag.Result, query string) string {
	parts := []string{
		SystemInstructions + "\n",
		"\n=== MUSHROOM KNOWLEDGE BASE (Retrieved Documents) ===\n",
	}
	parts = appendDocuments(parts, docs)
	parts = append(parts,
		"\n=== USER QUESTION ===",
		query+"\n",
		"\nYour response (following all rules):",
	)
	return strings.Join(parts, "\n")
}

// BuildIdentificationContext assembles the initial identification turn from
// the sorted prediction list (primary first) and the documents retrieved for
// every candidate species. threshold <= 0 falls back to
// DefaultConfidenceThreshold.
//
// The low-confidence and alternative-danger clauses are instructions to the
// generator, not locally enforced behavior.
//
// An empty prediction list yields an empty prompt; there is no
// identification to describe without a primary candidate.
func BuildIdentificationContext(docs []rag.Result, predictions []vision.Prediction, threshold float64) string {
	if len(predictions) == 0 {
		return ""
	}
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	primary := predictions[0]

	parts := []string{
		SystemInstructions + "\n",
		"\n=== COMPUTER VISION IDENTIFICATION RESULTS ===\n",
		fmt.Sprintf("PRIMARY PREDICTION: %s (Confidence: %s)\n", primary.Species, FormatPercent(primary.Confidence)),
	}

	if len(predictions) > 1 {
		parts = append(parts, "ALTERNATIVE PREDICTIONS:")
		for _, alt := range predictions[1:] {
			parts = append(parts, fmt.Sprintf("%s (Confidence: %s)", alt.Species, FormatPercent(alt.Confidence)))
		}
	}

	parts = append(parts, "\n=== MUSHROOM KNOWLEDGE BASE ===\n")
	parts = appendDocuments(parts, docs)

	parts = append(parts, "\n=== TASK ===")
	parts = append(parts, fmt.Sprintf(
		"Provide a detailed identification card for %s (the primary prediction with %s confidence).\n",
		primary.Species, FormatPercent(primary.Confidence)))

	if primary.Confidence < threshold {
		parts = append(parts, fmt.Sprintf(`Tell the user this warning:
⚠️ Confidence: %s - EXPERT VERIFICATION REQUIRED

🔍 For better identification, please provide additional photos:
- Cap underside (gills/pores)
- Full stem with base
- Growing habitat and surroundings

Clear photos from multiple angles help distinguish similar species.`, FormatPercent(primary.Confidence)))
	}

	if len(predictions) > 1 {
		names := make([]string, 0, len(predictions)-1)
		for _, alt := range predictions[1:] {
			names = append(names, alt.Species)
		}
		parts = append(parts, fmt.Sprintf(
			"\n⚠️ IMPORTANT: Also check if any alternative predictions (%s) are dangerous species. "+
				"If so, add a warning section at the very beginning before identification card and inform that this alternative species is in predictions.\n",
			strings.Join(names, ", ")))
	}

	return strings.Join(parts, "\n")
}

func appendDocuments(parts []string, docs []rag.Result) []string {
	for i, doc := range docs {
		parts = append(parts,
			fmt.Sprintf("\n--- Document %d (relevance: %.3f) ---", i+1, doc.Similarity),
			doc.Document,
			"---\n",
		)
	}
	return parts
}
