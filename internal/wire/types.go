package wire

// TypeTag is the decoded identity of a framed message's single-byte type
// code. Spec.md treats the registry that produces these as an external
// collaborator ("message_type_of(byte) -> TypeTag"); this is a concrete,
// minimal implementation of that lookup covering the backend/frontend
// message bytes in common use, enough to exercise the codec end to end.
type TypeTag struct {
	Byte byte
	Name string
}

func (t TypeTag) String() string { return t.Name }

// registry is indexed 0..255 by the wire type byte; a nil entry means
// "no registry entry", which TypeOf reports as KindUnknownMessageType.
var registry [256]*TypeTag

func register(b byte, name string) {
	registry[b] = &TypeTag{Byte: b, Name: name}
}

func init() {
	// Backend messages.
	register('R', "AuthenticationRequest")
	register('K', "BackendKeyData")
	register('2', "BindComplete")
	register('3', "CloseComplete")
	register('C', "CommandComplete")
	register('d', "CopyData")
	register('c', "CopyDone")
	register('G', "CopyInResponse")
	register('H', "CopyOutResponse")
	register('W', "CopyBothResponse")
	register('D', "DataRow")
	register('I', "EmptyQueryResponse")
	register('E', "ErrorResponse")
	register('V', "FunctionCallResponse")
	register('v', "NegotiateProtocolVersion")
	register('n', "NoData")
	register('N', "NoticeResponse")
	register('A', "NotificationResponse")
	register('t', "ParameterDescription")
	register('S', "ParameterStatus")
	register('1', "ParseComplete")
	register('s', "PortalSuspended")
	register('Z', "ReadyForQuery")
	register('T', "RowDescription")
	// Frontend messages that share a byte with no backend message above.
	register('p', "PasswordMessage")
	register('Q', "Query")
	register('X', "Terminate")
	register('F', "FunctionCall")
	register('f', "CopyFail")
}

// TypeOf looks up the TypeTag for a wire type byte, the codec's binding
// surface onto the external message-type registry named in spec.md §6.
func TypeOf(b byte) (TypeTag, *Error) {
	tt := registry[b]
	if tt == nil {
		return TypeTag{}, newErr(KindUnknownMessageType, "no registry entry for type byte %q (0x%02x)", rune(b), b)
	}
	return *tt, nil
}
