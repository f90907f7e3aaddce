package prettify

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

var operators = wordSet(
	"and", "eq", "eqv", "false", "ge", "gt", "le", "lt", "ne", "neqv", "not", "or", "true",
)

var keywords = wordSet(
	"allocatable", "allocate", "assign", "assignment",
	"backspace", "block",
	"call", "case", "character", "close", "common", "complex", "contains", "continue", "cycle",
	"data", "deallocate", "dimension", "do", "double",
	"else", "elseif", "elsewhere", "end", "enddo", "endfile", "endif", "entry", "equivalence", "exit", "external",
	"forall", "format", "function",
	"goto",
	"if", "implicit", "include", "inquire", "integer", "intent", "interface", "intrinsic",
	"logical",
	"module",
	"namelist", "none", "nullify",
	"only", "open", "operator", "optional",
	"parameter", "pause", "pointer", "precision", "print", "private", "procedure", "program", "public",
	"read", "real", "recursive", "result", "return", "rewind",
	"save", "select", "sequence", "stop", "subroutine",
	"target", "then", "type",
	"use",
	"where", "while", "write",
)

// intrinsics are only upcased when used as a procedure, i.e. followed by
// an opening parenthesis.
var intrinsics = wordSet(
	"abs", "achar", "acos", "adjustl", "adjustr", "aimag", "aint", "all", "allocated", "anint", "any",
	"asin", "associated", "atan", "atan2",
	"bit_size", "btest",
	"ceiling", "char", "cmplx", "conjg", "cos", "cosh", "count", "cshift",
	"date_and_time", "dble", "digits", "dim", "dot_product", "dprod",
	"eoshift", "epsilon", "exp", "exponent",
	"floor", "fraction",
	"huge",
	"iachar", "iand", "ibclr", "ibits", "ibset", "ichar", "ieor", "index", "int", "ior", "ishft", "ishftc",
	"kind",
	"lbound", "len", "len_trim", "lge", "lgt", "lle", "llt", "log", "log10", "logical",
	"matmul", "max", "maxexponent", "maxloc", "maxval", "merge", "min", "minexponent", "minloc", "minval",
	"mod", "modulo", "mvbits",
	"nearest", "nint", "not",
	"pack", "precision", "present", "product",
	"radix", "random_number", "random_seed", "range", "repeat", "reshape", "rrspacing",
	"scale", "scan", "selected_int_kind", "selected_real_kind", "set_exponent", "shape", "sign", "sin",
	"sinh", "size", "spacing", "spread", "sqrt", "sum", "system_clock",
	"tan", "tanh", "tiny", "transfer", "transpose", "trim",
	"ubound", "unpack",
	"verify",
)
