package handlers

// EvalQuestion is one entry of the built-in evaluation set. An answer scores
// by the share of Keywords it mentions.
type EvalQuestion struct {
	ID       string
	Question string
	Category string
	Keywords []string
}

func DefaultEvalSet() []EvalQuestion {
	return []EvalQuestion{
		{ID: "criminal_1", Category: "criminal",
			Question: "What is the punishment for murder under IPC Section 302?",
			Keywords: []string{"death", "life imprisonment", "fine", "section 302", "murder"}},
		{ID: "criminal_2", Category: "criminal",
			Question: "What is the difference between IPC Section 299 and 302?",
			Keywords: []string{"culpable homicide", "murder", "intention", "knowledge", "299", "302"}},
		{ID: "criminal_3", Category: "criminal",
			Question: "What are the essential elements of theft under IPC Section 378?",
			Keywords: []string{"dishonest intention", "movable property", "consent", "permanently deprive"}},
		{ID: "contract_1", Category: "contract",
			Question: "What is a valid contract under the Indian Contract Act?",
			Keywords: []string{"offer", "acceptance", "consideration", "capacity", "free consent", "lawful object"}},
		{ID: "contract_2", Category: "contract",
			Question: "What is the difference between void and voidable contracts?",
			Keywords: []string{"void", "voidable", "invalid", "coercion", "fraud", "misrepresentation"}},
		{ID: "property_1", Category: "property",
			Question: "What is the difference between movable and immovable property?",
			Keywords: []string{"immovable", "land", "buildings", "movable", "goods", "securities"}},
	}
}
