// Package palette holds the static icon/color tables used to decorate
// derived categories and income streams, and a cyclic color assigner whose
// output depends only on the order names are presented to it.
package palette

// Meta is the icon and color pair attached to a name.
type Meta struct {
	Icon  string
	Color string
}

// Swatch is the hex rendering of a named color.
type Swatch struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Bar        string `json:"bar"`
}

const (
	DefaultCategoryIcon = "category"
	DefaultStreamIcon   = "payments"
	FallbackColor       = "blue"
)

var (
	// CategoryColors is cycled for categories missing from CategoryMeta.
	CategoryColors = []string{"orange", "blue", "indigo", "teal", "pink", "green", "purple", "red"}

	// StreamColors is cycled for every income stream in first-seen order.
	StreamColors = []string{"emerald", "blue", "teal", "cyan", "green", "indigo"}

	// NewCategoryColors is offered when a category definition is created without a color.
	NewCategoryColors = []string{"orange", "blue", "indigo", "red", "yellow", "teal", "pink", "green"}
)

var categoryMeta = map[string]Meta{
	"Food & Dining": {Icon: "restaurant", Color: "orange"},
	"Groceries":     {Icon: "shopping_cart", Color: "green"},
	"Transport":     {Icon: "directions_car", Color: "blue"},
	"Entertainment": {Icon: "local_activity", Color: "purple"},
	"Shopping":      {Icon: "shopping_bag", Color: "pink"},
	"Education":     {Icon: "school", Color: "indigo"},
	"Housing":       {Icon: "home", Color: "teal"},
	"Healthcare":    {Icon: "medical_services", Color: "red"},
	"Other":         {Icon: "category", Color: "amber"},
}

var streamIcons = map[string]string{
	"Salary":        "work",
	"Freelance":     "laptop_mac",
	"Part-time Job": "work_history",
	"Scholarship":   "school",
	"Allowance":     "card_giftcard",
	"Investment":    "trending_up",
	"Gift":          "redeem",
	"Other":         "payments",
}

var swatches = map[string]Swatch{
	"orange":  {Background: "#fff7ed", Text: "#f97316", Bar: "linear-gradient(to right, #fdba74, #fed7aa)"},
	"blue":    {Background: "#eff6ff", Text: "#3b82f6", Bar: "linear-gradient(to right, #93c5fd, #bfdbfe)"},
	"indigo":  {Background: "#eef2ff", Text: "#6366f1", Bar: "linear-gradient(to right, #a5b4fc, #c7d2fe)"},
	"red":     {Background: "#fef2f2", Text: "#ef4444", Bar: "linear-gradient(to right, #fca5a5, #fecaca)"},
	"yellow":  {Background: "#fefce8", Text: "#eab308", Bar: "linear-gradient(to right, #fde047, #fef08a)"},
	"teal":    {Background: "#f0fdfa", Text: "#14b8a6", Bar: "linear-gradient(to right, #5eead4, #99f6e4)"},
	"pink":    {Background: "#fdf2f8", Text: "#ec4899", Bar: "linear-gradient(to right, #f9a8d4, #fbcfe8)"},
	"green":   {Background: "#f0fdf4", Text: "#22c55e", Bar: "linear-gradient(to right, #86efac, #bbf7d0)"},
	"emerald": {Background: "#ecfdf5", Text: "#059669", Bar: "linear-gradient(to right, #6ee7b7, #a7f3d0)"},
	"cyan":    {Background: "#ecfeff", Text: "#0891b2", Bar: "linear-gradient(to right, #67e8f9, #a5f3fc)"},
	"purple":  {Background: "#faf5ff", Text: "#a855f7", Bar: "linear-gradient(to right, #d8b4fe, #e9d5ff)"},
	"amber":   {Background: "#fffbeb", Text: "#f59e0b", Bar: "linear-gradient(to right, #fcd34d, #fde68a)"},
}

// CategoryMeta looks up the static decoration for a budget category.
func CategoryMeta(name string) (Meta, bool) {
	m, ok := categoryMeta[name]
	return m, ok
}

// StreamIcon returns the icon for an income stream name.
func StreamIcon(name string) string {
	if icon, ok := streamIcons[name]; ok {
		return icon
	}
	return DefaultStreamIcon
}

// SwatchFor resolves a color name, falling back to blue.
func SwatchFor(color string) Swatch {
	if s, ok := swatches[color]; ok {
		return s
	}
	return swatches[FallbackColor]
}

// Cycle hands out colors from an ordered palette, wrapping around. A Cycle
// is local to one computation; two runs over the same names in the same
// order get the same colors.
type Cycle struct {
	colors []string
	next   int
}

func NewCycle(colors []string) *Cycle {
	return &Cycle{colors: colors}
}

// Next returns the next color in the palette.
func (c *Cycle) Next() string {
	if len(c.colors) == 0 {
		return FallbackColor
	}
	color := c.colors[c.next%len(c.colors)]
	c.next++
	return color
}
