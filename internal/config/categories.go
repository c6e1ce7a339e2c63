package config

// CategoryWeights orders command categories in help output. Unknown
// categories sort after these, by name.
var CategoryWeights = map[string]int{
	"🕯️ Information": 0,
	"🎭 Pranks":       10,
	"🔒 Discipline":   20,
	"🛠️ Maintenance": 30,
}
