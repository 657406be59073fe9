package photon

// Magic is the first byte of every WebSocket frame.
const Magic byte = 0xF3

// Message types of the frame header.
const (
	msgInit                      byte = 0
	msgInitResponse              byte = 1
	msgOperationRequest          byte = 2
	msgOperationResponse         byte = 3
	msgEventData                 byte = 4
	msgInternalOperationRequest  byte = 6
	msgInternalOperationResponse byte = 7
	msgEncryptedFlag             byte = 0x80
)

// Message is one of *OperationRequest, *OperationResponse, *EventData,
// *InternalOperationRequest, *InternalOperationResponse or *Unclassified.
type Message interface {
	// Kind names the variant for logs.
	Kind() string
	// Code is the operation or event code, or the raw message type for Unclassified.
	Code() byte
	message()
}

type OperationRequest struct {
	OpCode byte
	Params Parameters
}

type OperationResponse struct {
	OpCode       byte
	ReturnCode   int16
	DebugMessage any
	Params       Parameters
}

type EventData struct {
	EventCode byte
	Params    Parameters
}

type InternalOperationRequest struct {
	OperationRequest
}

type InternalOperationResponse struct {
	OperationResponse
}

// Unclassified carries frames this package does not interpret (init handshakes,
// encrypted payloads, message types added by newer servers).
type Unclassified struct {
	Type byte
	Body []byte
}

func (*OperationRequest) Kind() string          { return "OperationRequest" }
func (*OperationResponse) Kind() string         { return "OperationResponse" }
func (*EventData) Kind() string                 { return "EventData" }
func (*InternalOperationRequest) Kind() string  { return "InternalOperationRequest" }
func (*InternalOperationResponse) Kind() string { return "InternalOperationResponse" }
func (*Unclassified) Kind() string              { return "Unclassified" }

func (m *OperationRequest) Code() byte  { return m.OpCode }
func (m *OperationResponse) Code() byte { return m.OpCode }
func (m *EventData) Code() byte         { return m.EventCode }
func (m *Unclassified) Code() byte      { return m.Type }

func (*OperationRequest) message()          {}
func (*OperationResponse) message()         {}
func (*EventData) message()                 {}
func (*InternalOperationRequest) message()  {}
func (*InternalOperationResponse) message() {}
func (*Unclassified) message()              {}

// Decode parses one WebSocket frame. Unknown message types decode to *Unclassified;
// only malformed frames return a *DecodeError.
func Decode(data []byte) (Message, error) {
	r := &reader{buf: data}
	magic, err := r.u8()
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, &DecodeError{Offset: 0, Err: errBadMagic}
	}
	t, err := r.u8()
	if err != nil {
		return nil, err
	}

	var msg Message
	switch {
	case t&msgEncryptedFlag != 0:
		msg = unclassified(t, r)
	case t == msgOperationRequest || t == msgInternalOperationRequest:
		req, err := readRequest(r)
		if err != nil {
			return nil, err
		}
		if t == msgInternalOperationRequest {
			msg = &InternalOperationRequest{OperationRequest: *req}
		} else {
			msg = req
		}
	case t == msgOperationResponse || t == msgInternalOperationResponse:
		resp, err := readResponse(r)
		if err != nil {
			return nil, err
		}
		if t == msgInternalOperationResponse {
			msg = &InternalOperationResponse{OperationResponse: *resp}
		} else {
			msg = resp
		}
	case t == msgEventData:
		code, err := r.u8()
		if err != nil {
			return nil, err
		}
		params, err := r.parameters()
		if err != nil {
			return nil, err
		}
		msg = &EventData{EventCode: code, Params: params}
	default:
		msg = unclassified(t, r)
	}

	if r.remaining() != 0 {
		return nil, r.fail(errTrailingData)
	}
	return msg, nil
}

func unclassified(t byte, r *reader) *Unclassified {
	body := make([]byte, r.remaining())
	copy(body, r.buf[r.off:])
	r.off = len(r.buf)
	return &Unclassified{Type: t, Body: body}
}

func readRequest(r *reader) (*OperationRequest, error) {
	code, err := r.u8()
	if err != nil {
		return nil, err
	}
	params, err := r.parameters()
	if err != nil {
		return nil, err
	}
	return &OperationRequest{OpCode: code, Params: params}, nil
}

func readResponse(r *reader) (*OperationResponse, error) {
	code, err := r.u8()
	if err != nil {
		return nil, err
	}
	rc, err := r.i16()
	if err != nil {
		return nil, err
	}
	dbg, err := r.value()
	if err != nil {
		return nil, err
	}
	params, err := r.parameters()
	if err != nil {
		return nil, err
	}
	return &OperationResponse{OpCode: code, ReturnCode: rc, DebugMessage: dbg, Params: params}, nil
}

// Encode writes msg as a WebSocket frame.
func Encode(msg Message) ([]byte, error) {
	w := &writer{buf: make([]byte, 0, 64)}
	w.u8(Magic)

	var err error
	switch m := msg.(type) {
	case *OperationRequest:
		w.u8(msgOperationRequest)
		err = writeRequest(w, m)
	case *InternalOperationRequest:
		w.u8(msgInternalOperationRequest)
		err = writeRequest(w, &m.OperationRequest)
	case *OperationResponse:
		w.u8(msgOperationResponse)
		err = writeResponse(w, m)
	case *InternalOperationResponse:
		w.u8(msgInternalOperationResponse)
		err = writeResponse(w, &m.OperationResponse)
	case *EventData:
		w.u8(msgEventData)
		w.u8(m.EventCode)
		err = w.parameters(m.Params)
	case *Unclassified:
		w.u8(m.Type)
		w.buf = append(w.buf, m.Body...)
	default:
		err = &EncodeError{Err: errUnsupported}
	}
	if err != nil {
		return nil, err
	}
	return w.buf, nil
}

func writeRequest(w *writer, m *OperationRequest) error {
	w.u8(m.OpCode)
	return w.parameters(m.Params)
}

func writeResponse(w *writer, m *OperationResponse) error {
	w.u8(m.OpCode)
	w.u16(uint16(m.ReturnCode))
	if err := w.value(m.DebugMessage); err != nil {
		return err
	}
	return w.parameters(m.Params)
}
