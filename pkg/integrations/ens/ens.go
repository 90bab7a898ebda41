package ens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/matzehuels/idplease/pkg/cache"
	apperrors "github.com/matzehuels/idplease/pkg/errors"
)

var (
	// RegistryAddress is the ENS registry on Ethereum mainnet.
	RegistryAddress = common.HexToAddress("0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e")

	// BaseRegistrarAddress is the .eth base registrar (ERC-721 of second-level names).
	BaseRegistrarAddress = common.HexToAddress("0x57f1887a8BF19b14fC0dF6Fd9B2acc9Af147eA85")
)

const contractABI = `[
	{"type":"function","name":"resolver","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"nameExpires","stateMutability":"view","inputs":[{"name":"id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]}
]`

var parsedABI = mustParseABI(contractABI)

func mustParseABI(def string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("ens: parse abi: %v", err))
	}
	return a
}

// Resolution is the outcome of a reverse lookup. Both fields are empty when
// the wallet has no verified primary name; Expiry is zero when the name has
// no registration expiry (subnames of non-.eth names, or failed reads).
type Resolution struct {
	Name   string    `json:"name,omitempty"`
	Expiry time.Time `json:"expiry,omitzero"`
}

// Empty reports whether no name was resolved.
func (r Resolution) Empty() bool { return r.Name == "" }

// Resolver performs ENS reverse resolution through read-only contract calls.
type Resolver struct {
	caller  ethereum.ContractCaller
	closer  io.Closer
	logger  *log.Logger
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	timeout time.Duration
	retry   bool
}

type Option func(*Resolver)

func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCache stores resolutions in c for ttl, keyed by lowercase wallet.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		if c != nil {
			r.cache = c
			r.ttl = ttl
		}
	}
}

// WithCallTimeout bounds each individual contract call.
func WithCallTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithRetry retries failed contract calls with [cache.RetryWithBackoff].
// Public RPC endpoints rate-limit bursts; decode errors are never retried.
func WithRetry() Option {
	return func(r *Resolver) { r.retry = true }
}

// New creates a Resolver over an existing caller (an *ethclient.Client or a
// test double).
func New(caller ethereum.ContractCaller, opts ...Option) *Resolver {
	r := &Resolver{
		caller:  caller,
		logger:  log.New(io.Discard),
		cache:   cache.NewNullCache(),
		keyer:   cache.NewDefaultKeyer(),
		timeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dial connects to an Ethereum JSON-RPC endpoint and returns a Resolver
// using it. Close releases the connection.
func Dial(ctx context.Context, rpcURL string, opts ...Option) (*Resolver, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeChain, err, "dial %s", rpcURL)
	}
	r := New(client, opts...)
	r.closer = closerFunc(client.Close)
	return r, nil
}

// Close releases the RPC connection if the Resolver owns one.
func (r *Resolver) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// Resolve is Lookup with failures logged and reported as an empty
// Resolution.
func (r *Resolver) Resolve(ctx context.Context, wallet string, refresh bool) Resolution {
	res, err := r.Lookup(ctx, wallet, refresh)
	if err != nil {
		r.logger.Warn("ens lookup failed", "wallet", wallet, "error", err)
		return Resolution{}
	}
	return res
}

// Lookup returns the verified primary name of wallet and, for .eth names,
// the registration expiry of its second-level label.
//
// A name is only reported when the forward record of the name points back
// at the wallet. An empty or malformed wallet yields an empty Resolution.
func (r *Resolver) Lookup(ctx context.Context, wallet string, refresh bool) (Resolution, error) {
	wallet = strings.TrimSpace(wallet)
	if !common.IsHexAddress(wallet) {
		return Resolution{}, nil
	}
	addr := common.HexToAddress(wallet)
	key := r.keyer.HTTPKey("ens", strings.ToLower(addr.Hex()))

	if !refresh {
		if data, ok, err := r.cache.Get(ctx, key); err == nil && ok {
			var res Resolution
			if json.Unmarshal(data, &res) == nil {
				return res, nil
			}
		}
	}

	res, complete, err := r.resolve(ctx, addr)
	if err != nil {
		return Resolution{}, err
	}
	// A failed expiry read is not cached so the next lookup retries it.
	if complete {
		if data, err := json.Marshal(res); err == nil {
			_ = r.cache.Set(ctx, key, data, r.ttl)
		}
	}
	return res, nil
}

// resolve reports complete=false when the name resolved but its expiry
// read failed.
func (r *Resolver) resolve(ctx context.Context, addr common.Address) (res Resolution, complete bool, err error) {
	name, err := r.ReverseName(ctx, addr)
	if err != nil || name == "" {
		return Resolution{}, err == nil, err
	}

	forward, err := r.Address(ctx, name)
	if err != nil {
		return Resolution{}, false, err
	}
	if forward != addr {
		r.logger.Debug("ens reverse record not verified", "wallet", addr.Hex(), "name", name, "forward", forward.Hex())
		return Resolution{}, true, nil
	}

	res = Resolution{Name: name}
	if label, ok := RegistrableLabel(name); ok {
		expiry, err := r.Expiry(ctx, label)
		if err != nil {
			r.logger.Debug("ens expiry lookup failed", "name", name, "error", err)
			return res, false, nil
		}
		res.Expiry = expiry
	}
	return res, true, nil
}

// ReverseName returns the name set on addr's reverse record, or "" if none.
func (r *Resolver) ReverseName(ctx context.Context, addr common.Address) (string, error) {
	node := ReverseNode(addr)
	resolver, err := r.resolverOf(ctx, node)
	if err != nil || resolver == (common.Address{}) {
		return "", err
	}
	out, err := r.call(ctx, resolver, "name", node)
	if err != nil {
		return "", err
	}
	name, _ := out[0].(string)
	return strings.TrimSpace(name), nil
}

// Address returns the address record of name, or the zero address.
func (r *Resolver) Address(ctx context.Context, name string) (common.Address, error) {
	node := Namehash(name)
	resolver, err := r.resolverOf(ctx, node)
	if err != nil || resolver == (common.Address{}) {
		return common.Address{}, err
	}
	out, err := r.call(ctx, resolver, "addr", node)
	if err != nil {
		return common.Address{}, err
	}
	a, _ := out[0].(common.Address)
	return a, nil
}

// Expiry returns the base-registrar expiry of a second-level .eth label.
// A zero return means the label is not registered.
func (r *Resolver) Expiry(ctx context.Context, label string) (time.Time, error) {
	out, err := r.call(ctx, BaseRegistrarAddress, "nameExpires", LabelTokenID(label))
	if err != nil {
		return time.Time{}, err
	}
	secs, _ := out[0].(*big.Int)
	if secs == nil || secs.Sign() <= 0 || !secs.IsInt64() {
		return time.Time{}, nil
	}
	return time.Unix(secs.Int64(), 0).UTC(), nil
}

func (r *Resolver) resolverOf(ctx context.Context, node [32]byte) (common.Address, error) {
	out, err := r.call(ctx, RegistryAddress, "resolver", node)
	if err != nil {
		return common.Address{}, err
	}
	a, _ := out[0].(common.Address)
	return a, nil
}

func (r *Resolver) call(ctx context.Context, to common.Address, method string, args ...any) ([]any, error) {
	input, err := parsedABI.Pack(method, args...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeInternal, err, "pack %s", method)
	}
	var data []byte
	attempt := func() error {
		callCtx := ctx
		if r.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, r.timeout)
			defer cancel()
		}
		out, err := r.caller.CallContract(callCtx, ethereum.CallMsg{To: &to, Data: input}, nil)
		if err != nil {
			return cache.Retryable(err)
		}
		data = out
		return nil
	}
	if r.retry {
		err = cache.RetryWithBackoff(ctx, attempt)
	} else {
		err = attempt()
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeChain, err, "call %s on %s", method, to.Hex())
	}
	out, err := parsedABI.Unpack(method, data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeChain, err, "decode %s from %s", method, to.Hex())
	}
	if len(out) == 0 {
		return nil, apperrors.New(apperrors.ErrCodeChain, "empty %s result from %s", method, to.Hex())
	}
	return out, nil
}

// Namehash computes the ENS node of a dot-separated name. Labels are
// lowercased; full UTS-46 normalization is not applied.
func Namehash(name string) [32]byte {
	var node [32]byte
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		copy(node[:], crypto.Keccak256(node[:], labelHash))
	}
	return node
}

// ReverseNode is the node of <addr>.addr.reverse.
func ReverseNode(addr common.Address) [32]byte {
	hexAddr := strings.ToLower(strings.TrimPrefix(addr.Hex(), "0x"))
	return Namehash(hexAddr + ".addr.reverse")
}

// RegistrableLabel returns the second-level label of a .eth name: "brookr"
// for both "brookr.eth" and "sub.brookr.eth".
func RegistrableLabel(name string) (string, bool) {
	labels := strings.Split(strings.ToLower(strings.TrimSpace(name)), ".")
	if len(labels) < 2 || labels[len(labels)-1] != "eth" {
		return "", false
	}
	label := labels[len(labels)-2]
	return label, label != ""
}

// LabelTokenID is the base-registrar token id of a label: uint256(keccak256(label)).
func LabelTokenID(label string) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256([]byte(label)))
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}
