package constants

const Title = "Encrypted file transfer with CRC32 confirmation"

const (
	CLIENT_VERSION   = 3         // Protocol version byte sent in every request header
	SERVER_VERSION   = 3         // Protocol version byte sent in every response header
	MAX_RETRY_COUNT  = 3         // Checksum mismatch retransmissions before giving up
	CLIENT_ID_SIZE   = 16        // Server-assigned identifier, NUL padded
	NAME_FIELD_SIZE  = 255       // Fixed-width name and file name fields
	RSA_KEY_BITS     = 1024      // Asymmetric key size generated at registration
	AES_KEY_SIZE     = 16        // Symmetric transport key issued by the server
	CHECKSUM_CHUNK   = 4096      // File read size when computing checksums
	MAX_PAYLOAD_SIZE = 256 << 20 // Larger announced payloads are treated as desync
	DEFAULT_PORT     = 1256      // Reference server port
	DEFAULT_DSCP     = 0x0A      // QoS for high throughput
	DEFAULT_TIMEOUT  = 10        // Dial timeout in seconds
	FILE_WRITE_QUEUE = 10        // Buffered write size multiplier on the server
)

const (
	TRANSFER_FILE    = "transfer.info" // host:port, name, file path
	ME_FILE          = "me.info"       // name, client id
	PRIVATE_KEY_FILE = "priv.key"      // base64 PKCS#8 private key
)
