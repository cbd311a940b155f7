package tex

// Category is TeX's fixed category-code enumeration. Every codepoint the
// eyes ever look at has exactly one of these roles at the instant it is
// lexed.
type Category int

const (
	CatEscape      Category = 0
	CatBeginGroup  Category = 1
	CatEndGroup    Category = 2
	CatMathShift   Category = 3
	CatAlignTab    Category = 4
	CatEndOfLine   Category = 5
	CatParameter   Category = 6
	CatSuperscript Category = 7
	CatSubscript   Category = 8
	CatIgnored     Category = 9
	CatSpace       Category = 10
	CatLetter      Category = 11
	CatOther       Category = 12
	CatActive      Category = 13
	CatComment     Category = 14
	CatInvalid     Category = 15
)

var categoryNames = map[Category]string{
	CatEscape:      "escape character",
	CatBeginGroup:  "begin-group",
	CatEndGroup:    "end-group",
	CatMathShift:   "math shift",
	CatAlignTab:    "alignment tab",
	CatEndOfLine:   "end of line",
	CatParameter:   "macro parameter character",
	CatSuperscript: "superscript",
	CatSubscript:   "subscript",
	CatIgnored:     "ignored",
	CatSpace:       "space",
	CatLetter:      "the letter",
	CatOther:       "the character",
	CatActive:      "active",
	CatComment:     "comment character",
	CatInvalid:     "invalid character",
}

// MeaningName renders the category name the way §6's \meaning format
// spells it, e.g. "begin-group" as in "begin-group character {".
func (c Category) MeaningName() string {
	name, ok := categoryNames[c]
	if !ok {
		return "unknown"
	}
	return name
}

func (c Category) String() string {
	return c.MeaningName()
}
