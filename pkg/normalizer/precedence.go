package normalizer

// Operator precedence for the source grammar, transcribed from its
// documented operator table (perlop). Higher binds tighter. The table is
// static data so it can be audited line by line against the reference.
var precedence = map[string]int{
	// exponentiation (right associative)
	"**": 180,
	// binding operators
	"=~": 160,
	"!~": 160,
	// multiplicative; x is string repetition
	"*": 150,
	"/": 150,
	"%": 150,
	"x": 150,
	// additive; . is string concatenation
	"+": 140,
	"-": 140,
	".": 140,
	// shifts
	"<<": 130,
	">>": 130,
	// relational, numeric and string
	"<":  100,
	">":  100,
	"<=": 100,
	">=": 100,
	"lt": 100,
	"gt": 100,
	"le": 100,
	"ge": 100,
	// equality, numeric and string
	"==":  90,
	"!=":  90,
	"<=>": 90,
	"eq":  90,
	"ne":  90,
	"cmp": 90,
	// bitwise
	"&": 80,
	"|": 70,
	"^": 70,
	// C-style logical
	"&&": 60,
	"||": 50,
	"//": 50,
	// range
	"..": 40,
	// ternary
	"?": 30,
	":": 30,
	// assignment
	"=": 20,
	// list separators
	",":  10,
	"=>": 10,
	// low-precedence logical
	"not": 5,
	"and": 3,
	"or":  1,
	"xor": 1,
}

// opPrecedence returns the precedence of op, or (0, false) for symbols
// outside the table.
func opPrecedence(op string) (int, bool) {
	p, ok := precedence[op]
	return p, ok
}

// rightAssociative reports whether equal-precedence occurrences of op nest
// to the right.
func rightAssociative(op string) bool {
	switch op {
	case "**", "?", ":", "=", "not":
		return true
	}
	return false
}

// knownFunctions is the fixed set of call words the normalizer recognizes
// when they appear without parentheses. Words outside this set are left raw
// rather than guessed at.
var knownFunctions = map[string]bool{
	"length": true, "int": true, "sprintf": true, "substr": true,
	"index": true, "join": true, "split": true, "unpack": true,
	"pack": true, "ord": true, "chr": true, "uc": true, "lc": true,
	"abs": true, "sqrt": true, "sin": true, "cos": true, "atan2": true,
	"exp": true, "log": true, "hex": true, "oct": true, "defined": true,
}
