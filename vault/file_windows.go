//go:build windows

package vault

import (
	"unsafe"

	"github.com/creatorledger/core/ledgererr"
	"golang.org/x/sys/windows"
)

// dataBlob mirrors the Win32 CRYPT_INTEGER_BLOB / DATA_BLOB layout
// used by CryptProtectData and CryptUnprotectData.
type dataBlob struct {
	cbData uint32
	pbData *byte
}

func newBlob(b []byte) *dataBlob {
	if len(b) == 0 {
		return &dataBlob{}
	}
	return &dataBlob{cbData: uint32(len(b)), pbData: &b[0]}
}

func (d *dataBlob) bytes() []byte {
	if d.cbData == 0 {
		return nil
	}
	out := make([]byte, d.cbData)
	copy(out, unsafe.Slice(d.pbData, d.cbData))
	return out
}

var (
	modcrypt32             = windows.NewLazySystemDLL("crypt32.dll")
	modkernel32            = windows.NewLazySystemDLL("kernel32.dll")
	procCryptProtectData   = modcrypt32.NewProc("CryptProtectData")
	procCryptUnprotectData = modcrypt32.NewProc("CryptUnprotectData")
	procLocalFree          = modkernel32.NewProc("LocalFree")
)

// dpapiSealer seals secrets with the Windows Data Protection API,
// scoped to the current user session, matching §6's "user-scoped
// data-protection primitive."
type dpapiSealer struct{}

func defaultSealer() sealer { return dpapiSealer{} }

func (dpapiSealer) Seal(plaintext []byte) ([]byte, error) {
	in := newBlob(plaintext)
	var out dataBlob
	r, _, err := procCryptProtectData.Call(
		uintptr(unsafe.Pointer(in)),
		0, 0, 0, 0, 0,
		uintptr(unsafe.Pointer(&out)),
	)
	if r == 0 {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "CryptProtectData failed", err)
	}
	defer procLocalFree.Call(uintptr(unsafe.Pointer(out.pbData)))
	return out.bytes(), nil
}

func (dpapiSealer) Open(ciphertext []byte) ([]byte, error) {
	in := newBlob(ciphertext)
	var out dataBlob
	r, _, err := procCryptUnprotectData.Call(
		uintptr(unsafe.Pointer(in)),
		0, 0, 0, 0, 0,
		uintptr(unsafe.Pointer(&out)),
	)
	if r == 0 {
		return nil, ledgererr.Wrap(ledgererr.VaultIO, "CryptUnprotectData failed", err)
	}
	defer procLocalFree.Call(uintptr(unsafe.Pointer(out.pbData)))
	return out.bytes(), nil
}
