package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/pradeepp88/indy-cli-go/internal/sdk"
	"github.com/pradeepp88/indy-cli-go/internal/sdk/did"
)

var errClosed = errors.New("wallet is closed")

// Wallet is an open wallet. It implements sdk.Wallet.
type Wallet struct {
	name string

	mu      sync.Mutex
	store   *store
	sealer  *sealer
	release func(name string)
}

var _ sdk.Wallet = (*Wallet)(nil)

// Name returns the wallet name.
func (w *Wallet) Name() string {
	return w.name
}

// Close releases the storage. Closing twice is a no-op.
func (w *Wallet) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.store == nil {
		return nil
	}
	err := w.store.close()
	w.store = nil
	w.sealer = nil
	if w.release != nil {
		w.release(w.name)
	}
	return err
}

func (w *Wallet) getSealed(key string, v any) error {
	if w.store == nil {
		return errClosed
	}
	sealed, err := w.store.get(key)
	if err != nil {
		return err
	}
	plain, err := w.sealer.open(sealed, []byte(key))
	if err != nil {
		return fmt.Errorf("open record %s: %w", key, err)
	}
	return json.Unmarshal(plain, v)
}

func (w *Wallet) sealAll(values map[string]any) (map[string][]byte, error) {
	puts := make(map[string][]byte, len(values))
	for key, v := range values {
		plain, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		if puts[key], err = w.sealer.seal(plain, []byte(key)); err != nil {
			return nil, err
		}
	}
	return puts, nil
}

func (w *Wallet) putSealed(values map[string]any, deletes ...string) error {
	if w.store == nil {
		return errClosed
	}
	puts, err := w.sealAll(values)
	if err != nil {
		return err
	}
	return w.store.write(puts, deletes...)
}

func didKey(d string) string { return didPrefix + d }

func seedKey(vk string) string { return seedPrefix + vk }

func (w *Wallet) info(d string) (sdk.DIDInfo, error) {
	var info sdk.DIDInfo
	err := w.getSealed(didKey(d), &info)
	if errors.Is(err, errRecordNotFound) {
		return info, fmt.Errorf("%w: %s", sdk.ErrDIDNotFound, d)
	}
	return info, err
}

func (w *Wallet) signingKey(verkey string) (*did.Key, error) {
	var seed []byte
	if err := w.getSealed(seedKey(verkey), &seed); err != nil {
		return nil, fmt.Errorf("signing key for %s: %w", verkey, err)
	}
	return did.FromSeedBytes(seed), nil
}

// CreateDID derives a key from the seed (random when empty) and stores
// the DID. An explicit DID overrides the one derived from the key.
func (w *Wallet) CreateDID(ctx context.Context, opts sdk.DIDOptions) (sdk.DIDInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key, err := did.FromSeed(opts.Seed)
	if err != nil {
		return sdk.DIDInfo{}, err
	}

	id := key.DID()
	if opts.DID != "" {
		id = did.Unqualify(opts.DID)
	}
	info := sdk.DIDInfo{DID: id, Verkey: key.Verkey(), Metadata: opts.Metadata}
	if opts.Method != "" {
		info.DID = did.Qualify(id, opts.Method)
		info.Method = opts.Method
	}

	if _, err := w.info(info.DID); err == nil {
		return sdk.DIDInfo{}, fmt.Errorf("%w: %s", sdk.ErrDIDExists, info.DID)
	} else if !errors.Is(err, sdk.ErrDIDNotFound) {
		return sdk.DIDInfo{}, err
	}

	err = w.putSealed(map[string]any{
		didKey(info.DID):     info,
		seedKey(info.Verkey): key.Seed(),
	})
	if err != nil {
		return sdk.DIDInfo{}, err
	}
	return info, nil
}

// ListDIDs returns every DID in the wallet, ordered by DID.
func (w *Wallet) ListDIDs(ctx context.Context) ([]sdk.DIDInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.store == nil {
		return nil, errClosed
	}
	var out []sdk.DIDInfo
	err := w.store.scan(didPrefix, func(key string, sealed []byte) error {
		plain, err := w.sealer.open(sealed, []byte(key))
		if err != nil {
			return fmt.Errorf("open record %s: %w", key, err)
		}
		var info sdk.DIDInfo
		if err := json.Unmarshal(plain, &info); err != nil {
			return err
		}
		out = append(out, info)
		return nil
	})
	return out, err
}

// GetDID returns a stored DID.
func (w *Wallet) GetDID(ctx context.Context, d string) (sdk.DIDInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.info(d)
}

// SetMetadata replaces the metadata of a DID.
func (w *Wallet) SetMetadata(ctx context.Context, d, metadata string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.info(d)
	if err != nil {
		return err
	}
	info.Metadata = metadata
	return w.putSealed(map[string]any{didKey(d): info})
}

// QualifyDID rewrites a stored DID to its did:<method>: form.
func (w *Wallet) QualifyDID(ctx context.Context, d, method string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.info(d)
	if err != nil {
		return "", err
	}
	qualified := did.Qualify(d, method)
	if qualified == d {
		return qualified, nil
	}
	info.DID = qualified
	info.Method = method
	if err := w.putSealed(map[string]any{didKey(qualified): info}, didKey(d)); err != nil {
		return "", err
	}
	return qualified, nil
}

// ReplaceKeysStart creates the next key of a DID and keeps it pending.
func (w *Wallet) ReplaceKeysStart(ctx context.Context, d, seed string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.info(d)
	if err != nil {
		return "", err
	}
	key, err := did.FromSeed(seed)
	if err != nil {
		return "", err
	}
	info.NextVerkey = key.Verkey()
	err = w.putSealed(map[string]any{
		didKey(d):              info,
		seedKey(key.Verkey()): key.Seed(),
	})
	if err != nil {
		return "", err
	}
	return info.NextVerkey, nil
}

// ReplaceKeysApply makes the pending key current.
func (w *Wallet) ReplaceKeysApply(ctx context.Context, d string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.info(d)
	if err != nil {
		return err
	}
	if info.NextVerkey == "" {
		return fmt.Errorf("%w: %s", sdk.ErrNoPendingKey, d)
	}
	info.Verkey = info.NextVerkey
	info.NextVerkey = ""
	return w.putSealed(map[string]any{didKey(d): info})
}

// Sign signs msg with the current key of a DID.
func (w *Wallet) Sign(ctx context.Context, d string, msg []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.info(d)
	if err != nil {
		return nil, err
	}
	key, err := w.signingKey(info.Verkey)
	if err != nil {
		return nil, err
	}
	return key.Sign(msg), nil
}
