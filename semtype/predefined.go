package semtype

var (
	Never    = uniform(0)
	Nil      = uniform(bitNil)
	Boolean  = uniform(bitBoolean)
	Int      = uniform(bitInt)
	Float    = uniform(bitFloat)
	Decimal  = uniform(bitDecimal)
	String   = uniform(bitString)
	Error    = uniform(bitError)
	Typedesc = uniform(bitTypedesc)
	Handle   = uniform(bitHandle)
	Function = uniform(bitFunction)

	List      = uniform(bitListRO | bitListRW)
	ListRO    = uniform(bitListRO)
	Mapping   = uniform(bitMappingRO | bitMappingRW)
	MappingRO = uniform(bitMappingRO)

	// Top is every value
	Top = uniform(topMask)
	// Any is every value except errors
	Any      = uniform(topMask &^ bitError)
	ReadOnly = uniform(readOnlyMask)

	// Undef is the value of an absent mapping field
	Undef = uniform(bitUndef)
)

// read-only tops stored in rec slot 0 of every Env
var (
	listAtomicRO    = &ListAtomicType{Rest: ReadOnly}
	mappingAtomicRO = &MappingAtomicType{Rest: ReadOnly}
)

// Basic returns the SemType holding every value of code
func Basic(code BasicTypeCode) SemType {
	return uniform(code.bit())
}
