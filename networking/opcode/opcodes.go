package opcode

// Request codes sent by the client.
const (
	REGISTER       = 1025 // Register new name
	SENDPUBLICKEY  = 1026 // Share RSA public key
	LOGIN          = 1027 // Reconnect with existing identity
	SENDFILE       = 1028 // Encrypted file content
	CHECKSUMOK     = 1029 // Checksum matched
	CHECKSUMRETRY  = 1030 // Checksum mismatch, file will be resent
	CHECKSUMFAILED = 1031 // Checksum mismatch on final attempt
)

// Response codes sent by the server.
const (
	REGISTEROK       = 2100 // Client id issued
	REGISTERFAIL     = 2101 // Name already registered
	KEYSENT          = 2102 // Encrypted AES key
	FILEACCEPTED     = 2103 // File received with checksum
	MESSAGECONFIRMED = 2104 // Session finished
	LOGINCONFIRMED   = 2105 // Encrypted AES key for existing client
	LOGINREJECTED    = 2106 // Unknown client
)

// Name returns a human-readable label for logging.
func Name(code uint16) string {
	switch code {
	case REGISTER:
		return "register"
	case SENDPUBLICKEY:
		return "send-public-key"
	case LOGIN:
		return "login"
	case SENDFILE:
		return "send-file"
	case CHECKSUMOK:
		return "checksum-ok"
	case CHECKSUMRETRY:
		return "checksum-bad-retry"
	case CHECKSUMFAILED:
		return "checksum-bad-final"
	case REGISTEROK:
		return "register-ok"
	case REGISTERFAIL:
		return "register-fail"
	case KEYSENT:
		return "key-sent"
	case FILEACCEPTED:
		return "file-accepted"
	case MESSAGECONFIRMED:
		return "message-confirmed"
	case LOGINCONFIRMED:
		return "login-confirmed"
	case LOGINREJECTED:
		return "login-rejected"
	}
	return "unknown"
}
