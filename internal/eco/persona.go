package eco

// Persona classifies a score into one of three fixed tiers.
type Persona string

const (
	PersonaExplorer Persona = "Eco Explorer"
	PersonaSaver    Persona = "Conscious Saver"
	PersonaWarrior  Persona = "Green Warrior"
)

// PersonaFor maps a score to its persona: 71 and above is Green Warrior,
// 41 to 70 Conscious Saver, anything lower Eco Explorer.
func PersonaFor(score int) Persona {
	switch {
	case score >= 71:
		return PersonaWarrior
	case score >= 41:
		return PersonaSaver
	default:
		return PersonaExplorer
	}
}

// Personas lists every persona from lowest to highest tier.
func Personas() []Persona {
	return []Persona{PersonaExplorer, PersonaSaver, PersonaWarrior}
}

// Description returns the short blurb shown next to the persona. Unknown
// personas get the Eco Explorer text.
func (p Persona) Description() string {
	switch p {
	case PersonaSaver:
		return "You're making great progress! Your eco-friendly choices are making a real difference."
	case PersonaWarrior:
		return "You're an eco-champion! Your sustainable lifestyle inspires others to make positive changes."
	default:
		return "You're just starting your green journey! Every small step counts towards a sustainable future."
	}
}
