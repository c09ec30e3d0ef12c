package persist

// Wire constants.
const (
	// Full escapes a compact int or long: the next 4 (int) or 8 (long) bytes
	// hold the value big-endian. Any other leading byte is the value itself,
	// sign-extended.
	Full byte = 0x80

	// True and False are the only valid boolean bytes.
	True  byte = 0x01
	False byte = 0x00

	// Magic opens every archive.
	Magic = "IRPB"

	// FormatVersion must be bumped whenever a catalogue in internal/ir is
	// reordered or an operand/instruction field sequence changes.
	FormatVersion int32 = 1

	// headerSize covers magic, version and headers offset.
	headerSize = 12

	// compactMin and compactMax bound the values a compact int or long
	// stores inline.
	compactMin = -127
	compactMax = 127
)
