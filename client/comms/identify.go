package comms

import (
	"fmt"
	"go_secure_copy/networking"
	"go_secure_copy/networking/opcode"

	"go.uber.org/zap"
)

// Identify registers and shares a fresh key for new sessions, or logs in with a persisted identity.
// The session holds a usable AES key on success.
func (c *Client) Identify(session *Session, identity IdentityStore, keys KeyStore) error {
	if session.Registered() {
		return c.Login(session)
	}
	if err := c.Register(session, identity, keys); err != nil {
		return err
	}
	return c.ShareKey(session)
}

// Register requests an id for the session name, then generates and persists the keypair
func (c *Client) Register(session *Session, identity IdentityStore, keys KeyStore) error {
	log := c.log.Named(StepRegister)
	log.Info("Starting registration", zap.String("name", session.Name))

	err := c.send(session, opcode.REGISTER, networking.NewNamePayload(session.Name).Encode())
	if err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	payload, err := c.receive(StepRegister, opcode.REGISTEROK)
	if err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}
	issued, ok := payload.(*networking.ClientIDPayload)
	if !ok {
		return fmt.Errorf("%w: register payload %T", networking.ErrUnexpectedResponse, payload)
	}
	session.ID = issued.ClientID

	if session.Crypto == nil {
		session.Crypto = new(networking.Crypto)
	}
	if err := session.Crypto.GenerateKeyPair(); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	if identity != nil {
		if err := identity.SaveIdentity(session.Name, session.ID.String()); err != nil {
			log.Error("Failed to save identity", zap.Error(err))
			return err
		}
	}
	if keys != nil {
		if err := keys.SavePrivateKey(session.Crypto.PrivateKey()); err != nil {
			log.Error("Failed to save private key", zap.Error(err))
			return err
		}
	}

	log.Info("Success", zap.Stringer("id", session.ID))
	return nil
}

// ShareKey sends the public key and takes the AES key the server encrypted with it
func (c *Client) ShareKey(session *Session) error {
	log := c.log.Named(StepShareKey)
	log.Info("Sending public key")

	if session.Crypto == nil || session.Crypto.PublicKey() == "" {
		err := fmt.Errorf("%w: public key required to share", networking.ErrKeyNotSet)
		log.Error("Fail", zap.Error(err))
		return err
	}

	request := &networking.ShareKeyRequest{Name: session.Name, PublicKey: session.Crypto.PublicKey()}
	if err := c.send(session, opcode.SENDPUBLICKEY, request.Encode()); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	if err := c.receiveKey(session, StepShareKey, opcode.KEYSENT); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	log.Info("Success")
	return nil
}

// Login reconnects a registered session. The persisted private key must already be loaded.
func (c *Client) Login(session *Session) error {
	log := c.log.Named(StepLogin)
	log.Info("Attempting to login", zap.String("name", session.Name), zap.Stringer("id", session.ID))

	if session.Crypto == nil || !session.Crypto.HasPrivateKey() {
		err := fmt.Errorf("%w: private key required to login", networking.ErrKeyNotSet)
		log.Error("Fail", zap.Error(err))
		return err
	}

	if err := c.send(session, opcode.LOGIN, networking.NewNamePayload(session.Name).Encode()); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	if err := c.receiveKey(session, StepLogin, opcode.LOGINCONFIRMED); err != nil {
		log.Error("Fail", zap.Error(err))
		return err
	}

	log.Info("Success")
	return nil
}

// receiveKey decrypts the AES key carried by a key-sent or login-confirmed response
func (c *Client) receiveKey(session *Session, step string, want uint16) error {
	payload, err := c.receive(step, want)
	if err != nil {
		return err
	}
	key, ok := payload.(*networking.KeyPayload)
	if !ok {
		return fmt.Errorf("%w: key payload %T", networking.ErrUnexpectedResponse, payload)
	}

	aesKey, err := session.Crypto.DecryptRSA(key.EncryptedKey)
	if err != nil {
		return err
	}
	return session.Crypto.SetEncodedAESKey(aesKey)
}
