// Package dict implements the typed value dictionary: the datatype catalogue,
// the four-part serialized form (types-present, type-offsets, block-offsets,
// entry blocks), and the transcoder that rewrites a v10 dictionary with
// decoded string payloads while tracking ordinal movement.
package dict

// Datatype tags a dictionary entry. The numeric order of the tags is the
// group order of the global dictionary sort: entries are ordered by datatype
// first, then by their type-specific byte encoding.
type Datatype uint8

const (
	String Datatype = iota
	LangString
	NCName
	Name
	Token
	NMToken
	NormalizedString
	Language
	AnyURI
	Notation
	QName
	ID
	IDRef
	Entity
	AnySimpleType
	Boolean
	Decimal
	Integer
	Long
	ULong
	Int
	UInt
	Short
	UShort
	Byte
	UByte
	Float
	Double
	BigInt
	DateTime
	Date
	Time
	Duration
	GYear
	GMonth
	GDay
	GYearMonth
	GMonthDay
	HexBinary
	Base64Binary

	numDatatypes
)

var datatypeNames = [numDatatypes]string{
	"string", "langString", "NCName", "name", "token", "NMToken",
	"normalizedString", "language", "anyURI", "NOTATION", "QName", "ID",
	"IDREF", "ENTITY", "anySimpleType", "boolean", "decimal", "integer",
	"long", "unsignedLong", "int", "unsignedInt", "short", "unsignedShort",
	"byte", "unsignedByte", "float", "double", "bigInt", "dateTime", "date",
	"time", "duration", "gYear", "gMonth", "gDay", "gYearMonth", "gMonthDay",
	"hexBinary", "base64Binary",
}

func (d Datatype) String() string {
	if d < numDatatypes {
		return datatypeNames[d]
	}
	return "unknown"
}

// Valid reports whether d is a known datatype tag.
func (d Datatype) Valid() bool { return d < numDatatypes }

// IsStringLike reports whether an entry of this datatype carries an escaped
// string payload that must be decoded during conversion. LangString is not in
// this set; its payload embeds a language tag and is handled separately.
func (d Datatype) IsStringLike() bool {
	switch d {
	case String, NCName, Name, Token, NMToken, NormalizedString, Language,
		AnyURI, Notation, QName, ID, IDRef, Entity, AnySimpleType:
		return true
	}
	return false
}
