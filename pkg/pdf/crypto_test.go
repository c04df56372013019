package pdf

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPadPassword(t *testing.T) {
	if got := padPassword(""); !bytes.Equal(got, passwordPadding) {
		t.Errorf("empty password pad = %x", got)
	}

	got := padPassword("test")
	if len(got) != 32 {
		t.Fatalf("padded length = %d, want 32", len(got))
	}
	if string(got[:4]) != "test" || !bytes.Equal(got[4:], passwordPadding[:28]) {
		t.Errorf("padded = %x", got)
	}

	long := strings.Repeat("x", 40)
	got = padPassword(long)
	if len(got) != 32 || string(got) != long[:32] {
		t.Errorf("long password pad = %x", got)
	}
}

func TestDecryptRC4(t *testing.T) {
	// Classic test vector.
	ciphertext := []byte{0xBB, 0xF3, 0x16, 0xE8, 0xD9, 0x40, 0xAF, 0x0A, 0xD3}
	plain, err := decryptRC4(ciphertext, []byte("Key"))
	if err != nil {
		t.Fatalf("decryptRC4 error: %v", err)
	}
	if string(plain) != "Plaintext" {
		t.Errorf("decryptRC4 = %q, want %q", plain, "Plaintext")
	}
}

func TestDecryptAES(t *testing.T) {
	key := []byte("0123456789abcdef")
	plain := []byte("attack at dawn")

	padLen := 16 - len(plain)%16
	padded := append(append([]byte{}, plain...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)

	iv := []byte("ivivivivivivphiv")
	block, _ := aes.NewCipher(key)
	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, padded)

	result, err := decryptAES(append(append([]byte{}, iv...), encrypted...), key)
	if err != nil {
		t.Fatalf("decryptAES error: %v", err)
	}
	if !bytes.Equal(result, plain) {
		t.Errorf("decryptAES = %q, want %q", result, plain)
	}
}

func TestDecryptAESShortData(t *testing.T) {
	if _, err := decryptAES([]byte{1, 2, 3}, []byte("0123456789abcdef")); err == nil {
		t.Error("expected error for short data")
	}
}

func TestAESCBCNoPad(t *testing.T) {
	key := bytes.Repeat([]byte{7}, 32)
	plain := bytes.Repeat([]byte{0xAB}, 32)

	block, _ := aes.NewCipher(key)
	iv := make([]byte, 16)
	encrypted := make([]byte, len(plain))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(encrypted, plain)

	result, err := aesCBCNoPad(encrypted, key)
	if err != nil {
		t.Fatalf("aesCBCNoPad error: %v", err)
	}
	if !bytes.Equal(result, plain) {
		t.Errorf("aesCBCNoPad = %x, want %x", result, plain)
	}
}

func TestComputeObjectKey(t *testing.T) {
	fileKey := []byte{1, 2, 3, 4, 5}
	sh := &SecurityHandler{Type: EncryptionRC4_40, encryptionKey: fileKey}

	h := md5.New()
	h.Write(fileKey)
	h.Write([]byte{7, 0, 0})
	h.Write([]byte{0, 0})
	expected := h.Sum(nil)[:10]

	if got := sh.computeObjectKey(7, 0); !bytes.Equal(got, expected) {
		t.Errorf("computeObjectKey = %x, want %x", got, expected)
	}

	// A 128-bit key caps the object key at 16 bytes.
	sh = &SecurityHandler{Type: EncryptionRC4_128, encryptionKey: bytes.Repeat([]byte{9}, 16)}
	if got := sh.computeObjectKey(1, 0); len(got) != 16 {
		t.Errorf("object key length = %d, want 16", len(got))
	}

	// AES-128 appends the salt, so the key differs from the RC4 one.
	rc4Key := sh.computeObjectKey(1, 0)
	sh.Type = EncryptionAES_128
	if aesKey := sh.computeObjectKey(1, 0); bytes.Equal(aesKey, rc4Key) {
		t.Error("AES object key should differ from RC4 object key")
	}

	// AES-256 uses the file key without derivation.
	fileKey32 := bytes.Repeat([]byte{3}, 32)
	sh = &SecurityHandler{Type: EncryptionAES_256, encryptionKey: fileKey32}
	if got := sh.computeObjectKey(42, 1); !bytes.Equal(got, fileKey32) {
		t.Errorf("AES-256 object key = %x, want file key", got)
	}
}

func TestSaslPrep(t *testing.T) {
	if got := saslPrep("simple"); string(got) != "simple" {
		t.Errorf("saslPrep = %q, want %q", got, "simple")
	}

	long := strings.Repeat("a", 200)
	if got := saslPrep(long); len(got) != 127 {
		t.Errorf("saslPrep length = %d, want 127", len(got))
	}
}

func TestParseEncryptionVersions(t *testing.T) {
	tests := []struct {
		dict     Dictionary
		expected EncryptionType
	}{
		{Dictionary{"Filter": Name("Standard"), "V": Integer(1), "R": Integer(2)}, EncryptionRC4_40},
		{Dictionary{"Filter": Name("Standard"), "V": Integer(2), "R": Integer(3), "Length": Integer(40)}, EncryptionRC4_40},
		{Dictionary{"Filter": Name("Standard"), "V": Integer(2), "R": Integer(3), "Length": Integer(128)}, EncryptionRC4_128},
		{Dictionary{"Filter": Name("Standard"), "V": Integer(3), "R": Integer(3)}, EncryptionRC4_128},
		{
			Dictionary{
				"Filter": Name("Standard"), "V": Integer(4), "R": Integer(4), "Length": Integer(128),
				"CF":   Dictionary{"StdCF": Dictionary{"CFM": Name("AESV2")}},
				"StmF": Name("StdCF"), "StrF": Name("StdCF"),
			},
			EncryptionAES_128,
		},
		{
			Dictionary{
				"Filter": Name("Standard"), "V": Integer(5), "R": Integer(6), "Length": Integer(256),
				"CF":   Dictionary{"StdCF": Dictionary{"CFM": Name("AESV3")}},
				"StmF": Name("StdCF"), "StrF": Name("StdCF"),
			},
			EncryptionAES_256,
		},
	}

	for i, tt := range tests {
		sh, err := ParseEncryption(tt.dict, nil)
		if err != nil {
			t.Errorf("case %d: ParseEncryption error: %v", i, err)
			continue
		}
		if sh.Type != tt.expected {
			t.Errorf("case %d: Type = %v, want %v", i, sh.Type, tt.expected)
		}
	}
}

func TestParseEncryptionBadFilter(t *testing.T) {
	_, err := ParseEncryption(Dictionary{"Filter": Name("MySecretScheme"), "V": Integer(1)}, nil)
	if err == nil {
		t.Error("expected error for non-standard filter")
	}
}

func TestParseEncryptionIdentityStreams(t *testing.T) {
	dict := Dictionary{
		"Filter": Name("Standard"), "V": Integer(4), "R": Integer(4),
		"CF":   Dictionary{"StdCF": Dictionary{"CFM": Name("AESV2")}},
		"StmF": Name("Identity"), "StrF": Name("StdCF"),
	}
	sh, err := ParseEncryption(dict, nil)
	if err != nil {
		t.Fatalf("ParseEncryption error: %v", err)
	}

	// Identity streams pass through even without a key.
	data := []byte{1, 2, 3}
	got, err := sh.DecryptStream(data, 1, 0)
	if err != nil {
		t.Fatalf("DecryptStream error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("identity stream filter should pass data through")
	}
	if _, err := sh.DecryptString(data, 1, 0); err == nil {
		t.Error("string decryption should fail before authentication")
	}
}

func TestPermissionBits(t *testing.T) {
	sh := &SecurityHandler{Permissions: -44}
	if !sh.CanPrint() {
		t.Error("CanPrint = false")
	}
	if sh.CanModify() {
		t.Error("CanModify = true")
	}
	if !sh.CanCopy() {
		t.Error("CanCopy = false")
	}
	if sh.CanAnnotate() {
		t.Error("CanAnnotate = true")
	}

	all := &SecurityHandler{Permissions: -1}
	if !all.CanPrint() || !all.CanModify() || !all.CanCopy() || !all.CanAnnotate() {
		t.Error("permissions -1 should allow everything")
	}
}

// encryptedPDF builds an RC4 40-bit encrypted document. The revision 2
// values are computed forward from the user and owner passwords.
func encryptedPDF(userPwd, ownerPwd string) []byte {
	docID := []byte("0123456789abcdef")
	perms := int32(-1)

	ownerHash := md5.Sum(padPassword(ownerPwd))
	oc, _ := rc4.NewCipher(ownerHash[:5])
	oValue := make([]byte, 32)
	oc.XORKeyStream(oValue, padPassword(userPwd))

	h := md5.New()
	h.Write(padPassword(userPwd))
	h.Write(oValue)
	h.Write([]byte{byte(perms), byte(perms >> 8), byte(perms >> 16), byte(perms >> 24)})
	h.Write(docID)
	fileKey := h.Sum(nil)[:5]

	uc, _ := rc4.NewCipher(fileKey)
	uValue := make([]byte, 32)
	uc.XORKeyStream(uValue, passwordPadding)

	objKey := func(num int) []byte {
		oh := md5.New()
		oh.Write(fileKey)
		oh.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16)})
		oh.Write([]byte{0, 0})
		return oh.Sum(nil)[:10]
	}
	encrypt := func(num int, plain []byte) []byte {
		c, _ := rc4.NewCipher(objKey(num))
		out := make([]byte, len(plain))
		c.XORKeyStream(out, plain)
		return out
	}

	title := encrypt(4, []byte("Secret Title"))
	content := encrypt(6, []byte("BT /F1 12 Tf ET"))

	b := newPDFBuilder()
	b.add(1, "<< /Type /Catalog /Pages 2 0 R >>")
	b.add(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.add(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 6 0 R >>")
	b.add(4, fmt.Sprintf("<< /Title <%X> >>", title))
	b.add(5, fmt.Sprintf("<< /Filter /Standard /V 1 /R 2 /O <%X> /U <%X> /P -1 >>", oValue, uValue))
	b.addStream(6, "", content)
	return b.finish(fmt.Sprintf("/Root 1 0 R /Info 4 0 R /Encrypt 5 0 R /ID [<%X> <%X>]", docID, docID))
}

func TestEncryptedDocument(t *testing.T) {
	doc, err := NewDocument(encryptedPDF("", "owner"))
	if err != nil {
		t.Fatalf("NewDocument error: %v", err)
	}
	defer doc.Close()

	info := doc.GetInfo()
	if info.Title != "Secret Title" {
		t.Errorf("Title = %q, want %q", info.Title, "Secret Title")
	}

	page, err := doc.GetPage(0)
	if err != nil {
		t.Fatalf("GetPage error: %v", err)
	}
	content, err := page.GetContents()
	if err != nil {
		t.Fatalf("GetContents error: %v", err)
	}
	if string(content) != "BT /F1 12 Tf ET" {
		t.Errorf("content = %q", content)
	}
}

func TestEncryptedDocumentUserPassword(t *testing.T) {
	data := encryptedPDF("secret", "owner")

	if _, err := NewDocument(data); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("no password: error = %v, want ErrInvalidPassword", err)
	}

	doc, err := NewDocumentWithPassword(data, "secret")
	if err != nil {
		t.Fatalf("user password rejected: %v", err)
	}
	doc.Close()

	// The owner password recovers the user password through O.
	doc, err = NewDocumentWithPassword(data, "owner")
	if err != nil {
		t.Fatalf("owner password rejected: %v", err)
	}
	doc.Close()
}
