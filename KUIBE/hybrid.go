package kuibe

import (
	"crypto/aes"
	cbc "crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"io"
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// HybridCiphertext carries the header encrypting a fresh session element and
// the symmetric payload keyed from it.
type HybridCiphertext struct {
	Header  *Ciphertext
	Payload []byte
}

// EncryptBytes encrypts data of any length, empty included, for id: a random
// target-group session element goes through Encrypt, and its hash keys
// AES-CBC over data.
func (k *KUIBE) EncryptBytes(pp *PublicParams, id *big.Int, data, eta []byte) (*HybridCiphertext, error) {
	_, session, err := bn256.RandomGT(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "encrypt bytes: sampling session element")
	}
	header, err := k.Encrypt(pp, id, session, eta)
	if err != nil {
		return nil, err
	}
	payload, err := symEnc(session, data)
	if err != nil {
		return nil, err
	}
	return &HybridCiphertext{Header: header, Payload: payload}, nil
}

// DecryptBytes verifies the header, recovers the session element and decrypts
// the payload.
func (k *KUIBE) DecryptBytes(pp *PublicParams, sk *SecretKey, hc *HybridCiphertext, eta []byte) ([]byte, error) {
	if hc == nil || hc.Header == nil {
		return nil, errors.WithMessage(ErrInvalidInput, "decrypt bytes")
	}
	session, err := k.Decrypt(pp, sk, hc.Header, eta)
	if err != nil {
		return nil, err
	}
	return symDec(session, hc.Payload)
}

// symEnc derives an AES key from the session element and encrypts with
// AES-CBC, ciphertext laid out IV || C with PKCS7 padding.
func symEnc(key *bn256.GT, plaintext []byte) ([]byte, error) {
	keyCBC := sha256.Sum256(key.Marshal())

	c, err := aes.NewCipher(keyCBC[:])
	if err != nil {
		return nil, err
	}
	blockSize := c.BlockSize()

	iv := make([]byte, blockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	padLen := blockSize - (len(plaintext) % blockSize)
	msgPad := make([]byte, len(plaintext)+padLen)
	copy(msgPad, plaintext)
	for i := len(plaintext); i < len(msgPad); i++ {
		msgPad[i] = byte(padLen)
	}

	ciphertext := make([]byte, blockSize+len(msgPad))
	copy(ciphertext[:blockSize], iv)

	encrypter := cbc.NewCBCEncrypter(c, iv)
	encrypter.CryptBlocks(ciphertext[blockSize:], msgPad)

	return ciphertext, nil
}

// symDec derives the AES key the same way as symEnc and strips the padding.
func symDec(key *bn256.GT, ciphertext []byte) ([]byte, error) {
	keyCBC := sha256.Sum256(key.Marshal())

	c, err := aes.NewCipher(keyCBC[:])
	if err != nil {
		return nil, err
	}
	blockSize := c.BlockSize()
	if len(ciphertext) < 2*blockSize || len(ciphertext)%blockSize != 0 {
		return nil, errors.WithMessage(ErrInvalidInput, "symmetric ciphertext length")
	}

	iv := ciphertext[:blockSize]
	enc := ciphertext[blockSize:]

	decrypter := cbc.NewCBCDecrypter(c, iv)
	msgPad := make([]byte, len(enc))
	decrypter.CryptBlocks(msgPad, enc)

	padLen := int(msgPad[len(msgPad)-1])
	if padLen <= 0 || padLen > blockSize || padLen > len(msgPad) {
		return nil, errors.WithMessage(ErrInvalidInput, "symmetric padding")
	}
	for i := len(msgPad) - padLen; i < len(msgPad); i++ {
		if msgPad[i] != byte(padLen) {
			return nil, errors.WithMessage(ErrInvalidInput, "symmetric padding")
		}
	}

	return msgPad[:len(msgPad)-padLen], nil
}
