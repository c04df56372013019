package pdf

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"

	"github.com/xdg-go/stringprep"
)

// EncryptionType represents the PDF encryption algorithm
type EncryptionType int

const (
	EncryptionNone EncryptionType = iota
	EncryptionRC4_40
	EncryptionRC4_128
	EncryptionAES_128
	EncryptionAES_256 // PDF 2.0
)

// SecurityHandler handles PDF decryption for the standard security handler
type SecurityHandler struct {
	Type           EncryptionType
	Version        int // V value (1-5)
	Revision       int // R value (2-6)
	KeyLength      int // in bits
	Permissions    int32
	OwnerKey       []byte // O value
	UserKey        []byte // U value
	OwnerEncrypted []byte // OE value (AES-256)
	UserEncrypted  []byte // UE value (AES-256)
	Perms          []byte // Perms value (AES-256)
	EncryptMeta    bool

	docID           []byte
	identityStreams bool
	identityStrings bool
	encryptionKey   []byte
}

// PDF password padding
var passwordPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// ParseEncryption builds a security handler from a resolved Encrypt
// dictionary. docID is the raw first element of the trailer ID array and
// feeds key derivation for revisions 2 through 4.
func ParseEncryption(encryptDict Dictionary, docID []byte) (*SecurityHandler, error) {
	sh := &SecurityHandler{
		EncryptMeta: true,
		docID:       docID,
	}

	filter, _ := encryptDict.GetName("Filter")
	if filter != "Standard" {
		return nil, fmt.Errorf("unsupported encryption filter: %s", filter)
	}

	if v, ok := encryptDict.GetInt("V"); ok {
		sh.Version = int(v)
	}
	if r, ok := encryptDict.GetInt("R"); ok {
		sh.Revision = int(r)
	}
	if length, ok := encryptDict.GetInt("Length"); ok {
		sh.KeyLength = int(length)
	} else {
		sh.KeyLength = 40 // Default
	}
	if p, ok := encryptDict.GetInt("P"); ok {
		sh.Permissions = int32(p)
	}

	if o, ok := encryptDict.GetString("O"); ok {
		sh.OwnerKey = o.Value
	}
	if u, ok := encryptDict.GetString("U"); ok {
		sh.UserKey = u.Value
	}

	// PDF 2.0 AES-256 specific values
	if sh.Revision >= 5 {
		if oe, ok := encryptDict.GetString("OE"); ok {
			sh.OwnerEncrypted = oe.Value
		}
		if ue, ok := encryptDict.GetString("UE"); ok {
			sh.UserEncrypted = ue.Value
		}
		if perms, ok := encryptDict.GetString("Perms"); ok {
			sh.Perms = perms.Value
		}
	}

	// Determine encryption type
	switch sh.Version {
	case 1:
		sh.Type = EncryptionRC4_40
	case 2:
		if sh.KeyLength <= 40 {
			sh.Type = EncryptionRC4_40
		} else {
			sh.Type = EncryptionRC4_128
		}
	case 3:
		sh.Type = EncryptionRC4_128
	case 4, 5:
		sh.parseCryptFilters(encryptDict)
	default:
		return nil, fmt.Errorf("unsupported encryption version %d", sh.Version)
	}

	// Check EncryptMetadata
	if em, ok := encryptDict.GetBool("EncryptMetadata"); ok {
		sh.EncryptMeta = em
	}

	return sh, nil
}

// parseCryptFilters resolves the V4/V5 crypt filter indirection. Only the
// standard StdCF layout occurs in practice, with StmF and StrF naming a
// filter in CF whose CFM picks the algorithm.
func (sh *SecurityHandler) parseCryptFilters(encryptDict Dictionary) {
	if sh.Version >= 5 {
		sh.Type = EncryptionAES_256
	} else {
		sh.Type = EncryptionAES_128
	}

	cf, ok := encryptDict.GetDict("CF")
	if !ok {
		return
	}

	stmf, _ := encryptDict.GetName("StmF")
	strf, _ := encryptDict.GetName("StrF")
	if stmf == "" {
		stmf = "Identity"
	}
	if strf == "" {
		strf = "Identity"
	}
	sh.identityStreams = stmf == "Identity"
	sh.identityStrings = strf == "Identity"

	// The non-identity filter determines the algorithm
	name := stmf
	if name == "Identity" {
		name = strf
	}
	if name == "Identity" {
		return
	}

	filter, ok := cf.GetDict(string(name))
	if !ok {
		return
	}
	switch cfm, _ := filter.GetName("CFM"); cfm {
	case "V2":
		sh.Type = EncryptionRC4_128
	case "AESV2":
		sh.Type = EncryptionAES_128
	case "AESV3":
		sh.Type = EncryptionAES_256
	}
}

// Authenticate attempts to authenticate with the given password
func (sh *SecurityHandler) Authenticate(password string) bool {
	if sh.Revision >= 5 {
		return sh.authenticateAES256(password)
	}

	// Try user password first
	if sh.authenticateUser(password) {
		return true
	}
	// Try owner password
	return sh.authenticateOwner(password)
}

// authenticateUser checks the user password
func (sh *SecurityHandler) authenticateUser(password string) bool {
	key := sh.computeEncryptionKey(password)
	computed := sh.computeUserKey(key)

	if sh.Revision >= 3 {
		// Compare first 16 bytes
		if len(computed) >= 16 && len(sh.UserKey) >= 16 &&
			bytes.Equal(computed[:16], sh.UserKey[:16]) {
			sh.encryptionKey = key
			return true
		}
	} else {
		if bytes.Equal(computed, sh.UserKey) {
			sh.encryptionKey = key
			return true
		}
	}
	return false
}

// authenticateOwner checks the owner password
func (sh *SecurityHandler) authenticateOwner(password string) bool {
	// Compute owner key
	paddedPwd := padPassword(password)
	hash := md5.Sum(paddedPwd)

	if sh.Revision >= 3 {
		for i := 0; i < 50; i++ {
			hash = md5.Sum(hash[:])
		}
	}

	keyLen := sh.KeyLength / 8
	if keyLen > 16 {
		keyLen = 16
	}
	key := hash[:keyLen]

	// Decrypt owner key to get user password
	var userPwd []byte
	if sh.Revision >= 3 {
		userPwd = make([]byte, len(sh.OwnerKey))
		copy(userPwd, sh.OwnerKey)
		for i := 19; i >= 0; i-- {
			tmpKey := make([]byte, len(key))
			for j := range key {
				tmpKey[j] = key[j] ^ byte(i)
			}
			cipher, _ := rc4.NewCipher(tmpKey)
			cipher.XORKeyStream(userPwd, userPwd)
		}
	} else {
		cipher, _ := rc4.NewCipher(key)
		userPwd = make([]byte, len(sh.OwnerKey))
		cipher.XORKeyStream(userPwd, sh.OwnerKey)
	}

	// Try to authenticate with decrypted user password
	return sh.authenticateUser(string(userPwd))
}

// computeEncryptionKey computes the encryption key from the password
// (Algorithm 2, revisions 2 to 4)
func (sh *SecurityHandler) computeEncryptionKey(password string) []byte {
	paddedPwd := padPassword(password)

	h := md5.New()
	h.Write(paddedPwd)
	h.Write(sh.OwnerKey)

	// Add permissions (little-endian)
	p := sh.Permissions
	h.Write([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})

	// Add the first document ID element
	h.Write(sh.docID)

	if sh.Revision >= 4 && !sh.EncryptMeta {
		h.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}

	hash := h.Sum(nil)

	keyLen := sh.KeyLength / 8
	if keyLen < 5 {
		keyLen = 5
	}
	if keyLen > 16 {
		keyLen = 16
	}

	if sh.Revision >= 3 {
		for i := 0; i < 50; i++ {
			h := md5.Sum(hash[:keyLen])
			hash = h[:]
		}
	}

	return hash[:keyLen]
}

// computeUserKey computes the user key for verification
func (sh *SecurityHandler) computeUserKey(key []byte) []byte {
	if sh.Revision >= 3 {
		h := md5.New()
		h.Write(passwordPadding)
		h.Write(sh.docID)
		hash := h.Sum(nil)

		cipher, _ := rc4.NewCipher(key)
		result := make([]byte, 16)
		cipher.XORKeyStream(result, hash[:16])

		for i := 1; i <= 19; i++ {
			tmpKey := make([]byte, len(key))
			for j := range key {
				tmpKey[j] = key[j] ^ byte(i)
			}
			cipher, _ := rc4.NewCipher(tmpKey)
			cipher.XORKeyStream(result, result)
		}

		// Pad to 32 bytes
		padded := make([]byte, 32)
		copy(padded, result)
		return padded
	}

	cipher, _ := rc4.NewCipher(key)
	result := make([]byte, 32)
	cipher.XORKeyStream(result, passwordPadding)
	return result
}

// authenticateAES256 handles revisions 5 and 6. The file key is not
// derived from the password but unwrapped from UE or OE.
func (sh *SecurityHandler) authenticateAES256(password string) bool {
	pwd := saslPrep(password)
	if len(sh.UserKey) < 48 || len(sh.OwnerKey) < 48 {
		return false
	}

	// User password: validation salt U[32:40], key salt U[40:48]
	vsalt := sh.UserKey[32:40]
	ksalt := sh.UserKey[40:48]
	if bytes.Equal(sh.hash256(pwd, vsalt, nil), sh.UserKey[:32]) {
		intermediate := sh.hash256(pwd, ksalt, nil)
		key, err := aesCBCNoPad(sh.UserEncrypted, intermediate)
		if err != nil {
			return false
		}
		sh.encryptionKey = key
		sh.checkPerms()
		return true
	}

	// Owner password hashes additionally cover U[0:48]
	udata := sh.UserKey[:48]
	vsalt = sh.OwnerKey[32:40]
	ksalt = sh.OwnerKey[40:48]
	if bytes.Equal(sh.hash256(pwd, vsalt, udata), sh.OwnerKey[:32]) {
		intermediate := sh.hash256(pwd, ksalt, udata)
		key, err := aesCBCNoPad(sh.OwnerEncrypted, intermediate)
		if err != nil {
			return false
		}
		sh.encryptionKey = key
		sh.checkPerms()
		return true
	}

	return false
}

// hash256 is the password hash for revisions 5 and 6. Revision 5 is a
// single SHA-256, revision 6 runs the hardened iteration (Algorithm 2.B).
func (sh *SecurityHandler) hash256(password, salt, userData []byte) []byte {
	input := make([]byte, 0, len(password)+len(salt)+len(userData))
	input = append(input, password...)
	input = append(input, salt...)
	input = append(input, userData...)
	k := sha256.Sum256(input)
	key := k[:]

	if sh.Revision < 6 {
		return key
	}

	for i := 0; ; i++ {
		round := make([]byte, 0, len(password)+len(key)+len(userData))
		round = append(round, password...)
		round = append(round, key...)
		round = append(round, userData...)
		k1 := bytes.Repeat(round, 64)

		block, err := aes.NewCipher(key[:16])
		if err != nil {
			return key[:32]
		}
		e := make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, key[16:32]).CryptBlocks(e, k1)

		sum := 0
		for _, b := range e[:16] {
			sum += int(b)
		}
		switch sum % 3 {
		case 0:
			h := sha256.Sum256(e)
			key = h[:]
		case 1:
			h := sha512.Sum384(e)
			key = h[:]
		case 2:
			h := sha512.Sum512(e)
			key = h[:]
		}

		if i >= 63 && int(e[len(e)-1]) <= i-31 {
			break
		}
	}

	return key[:32]
}

// checkPerms decrypts the Perms block and folds its permissions in. A
// mismatch is tolerated, matching how viewers treat damaged Perms.
func (sh *SecurityHandler) checkPerms() {
	if len(sh.Perms) < 16 || len(sh.encryptionKey) != 32 {
		return
	}
	block, err := aes.NewCipher(sh.encryptionKey)
	if err != nil {
		return
	}
	decrypted := make([]byte, 16)
	block.Decrypt(decrypted, sh.Perms[:16])

	if decrypted[9] == 'a' && decrypted[10] == 'd' && decrypted[11] == 'b' {
		sh.Permissions = int32(uint32(decrypted[0]) | uint32(decrypted[1])<<8 |
			uint32(decrypted[2])<<16 | uint32(decrypted[3])<<24)
		sh.EncryptMeta = decrypted[8] == 'T'
	}
}

// saslPrep normalizes an AES-256 password and truncates it to 127 bytes
func saslPrep(password string) []byte {
	prepared, err := stringprep.SASLprep.Prepare(password)
	if err != nil {
		prepared = password
	}
	pwd := []byte(prepared)
	if len(pwd) > 127 {
		pwd = pwd[:127]
	}
	return pwd
}

// DecryptStream decrypts stream data using the object's key
func (sh *SecurityHandler) DecryptStream(data []byte, objNum, genNum int) ([]byte, error) {
	if sh.identityStreams {
		return data, nil
	}
	return sh.decryptData(data, objNum, genNum)
}

// DecryptString decrypts string data using the object's key
func (sh *SecurityHandler) DecryptString(data []byte, objNum, genNum int) ([]byte, error) {
	if sh.identityStrings {
		return data, nil
	}
	return sh.decryptData(data, objNum, genNum)
}

func (sh *SecurityHandler) decryptData(data []byte, objNum, genNum int) ([]byte, error) {
	if sh.encryptionKey == nil {
		return nil, errors.New("not authenticated")
	}

	key := sh.computeObjectKey(objNum, genNum)

	switch sh.Type {
	case EncryptionRC4_40, EncryptionRC4_128:
		return decryptRC4(data, key)
	case EncryptionAES_128, EncryptionAES_256:
		return decryptAES(data, key)
	default:
		return nil, errors.New("unsupported encryption type")
	}
}

// computeObjectKey computes the key for a specific object. AES-256 uses
// the file key directly without per-object derivation.
func (sh *SecurityHandler) computeObjectKey(objNum, genNum int) []byte {
	if sh.Type == EncryptionAES_256 {
		return sh.encryptionKey
	}

	h := md5.New()
	h.Write(sh.encryptionKey)
	h.Write([]byte{byte(objNum), byte(objNum >> 8), byte(objNum >> 16)})
	h.Write([]byte{byte(genNum), byte(genNum >> 8)})

	if sh.Type == EncryptionAES_128 {
		h.Write([]byte("sAlT"))
	}

	hash := h.Sum(nil)

	keyLen := len(sh.encryptionKey) + 5
	if keyLen > 16 {
		keyLen = 16
	}

	return hash[:keyLen]
}

// decryptRC4 decrypts data using RC4
func decryptRC4(data, key []byte) ([]byte, error) {
	cipher, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}

	result := make([]byte, len(data))
	cipher.XORKeyStream(result, data)
	return result, nil
}

// decryptAES decrypts data using AES-CBC with a leading IV
func decryptAES(data, key []byte) ([]byte, error) {
	if len(data) < 16 {
		return nil, errors.New("data too short for AES")
	}

	// First 16 bytes are IV
	iv := data[:16]
	ciphertext := data[16:]

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext not multiple of block size")
	}

	mode := cipher.NewCBCDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertext))
	mode.CryptBlocks(plaintext, ciphertext)

	// Remove PKCS7 padding
	if len(plaintext) > 0 {
		padLen := int(plaintext[len(plaintext)-1])
		if padLen > 0 && padLen <= 16 {
			plaintext = plaintext[:len(plaintext)-padLen]
		}
	}

	return plaintext, nil
}

// aesCBCNoPad decrypts with a zero IV and no padding, as used for the
// UE and OE key blobs
func aesCBCNoPad(data, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, errors.New("ciphertext not multiple of block size")
	}
	iv := make([]byte, aes.BlockSize)
	plaintext := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, data)
	return plaintext, nil
}

// padPassword pads a password to 32 bytes
func padPassword(password string) []byte {
	pwd := []byte(password)
	if len(pwd) > 32 {
		pwd = pwd[:32]
	}
	result := make([]byte, 32)
	copy(result, pwd)
	copy(result[len(pwd):], passwordPadding)
	return result
}

// CanPrint returns true if printing is allowed
func (sh *SecurityHandler) CanPrint() bool {
	return sh.Permissions&0x04 != 0
}

// CanModify returns true if modification is allowed
func (sh *SecurityHandler) CanModify() bool {
	return sh.Permissions&0x08 != 0
}

// CanCopy returns true if copying is allowed
func (sh *SecurityHandler) CanCopy() bool {
	return sh.Permissions&0x10 != 0
}

// CanAnnotate returns true if annotation is allowed
func (sh *SecurityHandler) CanAnnotate() bool {
	return sh.Permissions&0x20 != 0
}
