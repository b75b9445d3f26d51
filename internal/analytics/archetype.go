package analytics

// Archetype is a coarse label for a viewer's overall pattern.
type Archetype struct {
	Name        string `json:"type"`
	Description string `json:"description"`
}

var (
	Explorer = Archetype{
		Name:        "The Explorer",
		Description: "You actively seek diverse content and resist algorithmic influence.",
	}
	Specialist = Archetype{
		Name:        "The Specialist",
		Description: "You have found your niche and dive deep into specific content areas.",
	}
	NightWatcher = Archetype{
		Name:        "The Night Watcher",
		Description: "Your viewing happens late at night, when recommendations steer the most.",
	}
	BingeViewer = Archetype{
		Name:        "The Binge Viewer",
		Description: "You tend to watch many videos in a single sitting.",
	}
	BalancedViewer = Archetype{
		Name:        "The Balanced Viewer",
		Description: "You keep a healthy balance between choice and recommendation.",
	}
)

// IdentifyArchetype applies the archetype rules in priority order.
func IdentifyArchetype(m Metrics) Archetype {
	switch {
	case m.Diversity > 0.7 && m.EchoChamber < 40:
		return Explorer
	case m.Diversity < 0.3 && m.EchoChamber > 70:
		return Specialist
	case m.NightOwl > 60:
		return NightWatcher
	case m.Binge > 0.7:
		return BingeViewer
	default:
		return BalancedViewer
	}
}
