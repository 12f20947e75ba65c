package curl

import "fmt"

// TraitPrompt is the text part of the vision request.
const TraitPrompt = "Please analyze this photo of curly hair. Identify:\n" +
	"- Curl type (1A to 4C)\n" +
	"- Porosity (low, med, high)\n" +
	"- Frizz level\n" +
	"- Volume/density\n" +
	"- Overall hair health"

const routineTemplate = `
Based on this hair analysis: %s, generate a personalized curly hair care routine for a 15-year-old girl. Include:

1. A care routine:
   - Wash frequency
   - Product types (moisturizers, leave-ins, stylers)
   - Styling methods
   - Sleep protection

2. A list of 2–3 DIY hair product recipes made with common home ingredients.
   For each DIY product, include:
   - Name
   - Purpose (e.g. deep conditioning, curl definition)
   - Ingredients
   - Instructions
   - How often to use it
   - One-sentence scientific justification (e.g. “Aloe vera contains mucilage, which enhances moisture retention.”)
`

// RoutinePrompt embeds the vision analysis verbatim into the routine request.
func RoutinePrompt(analysis string) string {
	return fmt.Sprintf(routineTemplate, analysis)
}
