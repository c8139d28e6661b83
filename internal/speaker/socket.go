package speaker

// socket is the subset of transport.Socket the Sender and Receiver rely
// on. Declaring it as an interface here (rather than depending on the
// concrete type) lets tests exercise the relaxation and broadcast logic
// against an in-memory fake instead of a real UDP socket.
type socket interface {
	SendTo(payload []byte, addr string) error
	Receive() ([]byte, string, error)
}
