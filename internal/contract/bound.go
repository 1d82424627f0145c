package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/onlyburns/oburnctl/internal/chain"
)

// Bound is a deployed contract paired with its ABI.
type Bound struct {
	Name    string
	Address common.Address
	abi     abi.ABI
	backend chain.Backend
}

// NewBound binds an ABI to an address.
func NewBound(name string, addr common.Address, a abi.ABI, backend chain.Backend) *Bound {
	return &Bound{Name: name, Address: addr, abi: a, backend: backend}
}

// BindArtifact binds an artifact's ABI to addr.
func BindArtifact(a *Artifact, addr common.Address, backend chain.Backend) *Bound {
	return NewBound(a.Name, addr, a.ABI, backend)
}

// Calldata encodes a method call. *big.Int arguments are narrowed to the
// method's fixed-width integer inputs where needed.
func (b *Bound) Calldata(method string, args ...any) ([]byte, error) {
	if m, ok := b.abi.Methods[method]; ok && len(m.Inputs) == len(args) {
		args = append([]any(nil), args...)
		for i, in := range m.Inputs {
			args[i] = narrow(in.Type, args[i])
		}
	}
	data, err := b.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encoding %s.%s: %w", b.Name, method, err)
	}
	return data, nil
}

// Call runs a read-only method as `from`. Per-sender views need the explicit
// sender.
func (b *Bound) Call(ctx context.Context, from common.Address, method string, args ...any) ([]any, error) {
	data, err := b.Calldata(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := b.backend.CallContract(ctx, ethereum.CallMsg{From: from, To: &b.Address, Data: data}, nil)
	if err != nil {
		return nil, newRevertError(b.Name+"."+method, err)
	}
	vals, err := b.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("decoding %s.%s: %w", b.Name, method, err)
	}
	return vals, nil
}

// CallBig calls a method returning a single integer.
func (b *Bound) CallBig(ctx context.Context, from common.Address, method string, args ...any) (*big.Int, error) {
	vals, err := b.Call(ctx, from, method, args...)
	if err != nil {
		return nil, err
	}
	if len(vals) != 1 {
		return nil, fmt.Errorf("%s.%s: expected 1 return value, got %d", b.Name, method, len(vals))
	}
	switch v := vals[0].(type) {
	case *big.Int:
		return v, nil
	case uint8:
		return big.NewInt(int64(v)), nil
	case uint16:
		return big.NewInt(int64(v)), nil
	case uint32:
		return big.NewInt(int64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("%s.%s: return type %T is not an integer", b.Name, method, vals[0])
	}
}

// CallAddress calls a method returning a single address.
func (b *Bound) CallAddress(ctx context.Context, from common.Address, method string, args ...any) (common.Address, error) {
	vals, err := b.Call(ctx, from, method, args...)
	if err != nil {
		return common.Address{}, err
	}
	if len(vals) != 1 {
		return common.Address{}, fmt.Errorf("%s.%s: expected 1 return value, got %d", b.Name, method, len(vals))
	}
	addr, ok := vals[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("%s.%s: return type %T is not an address", b.Name, method, vals[0])
	}
	return addr, nil
}

// Transact sends a state-changing method call through t.
func (b *Bound) Transact(ctx context.Context, t *Transactor, method string, args ...any) (*types.Receipt, error) {
	data, err := b.Calldata(method, args...)
	if err != nil {
		return nil, err
	}
	receipt, err := t.Send(ctx, &b.Address, data, nil)
	if err != nil {
		return receipt, newRevertError(b.Name+"."+method, err)
	}
	return receipt, nil
}

// narrow converts v to the Go type abi.Pack expects for small integer types.
func narrow(t abi.Type, v any) any {
	n, ok := v.(*big.Int)
	if !ok || t.Size > 64 {
		return v
	}
	switch t.T {
	case abi.UintTy:
		switch t.Size {
		case 8:
			return uint8(n.Uint64())
		case 16:
			return uint16(n.Uint64())
		case 32:
			return uint32(n.Uint64())
		case 64:
			return n.Uint64()
		}
	case abi.IntTy:
		switch t.Size {
		case 8:
			return int8(n.Int64())
		case 16:
			return int16(n.Int64())
		case 32:
			return int32(n.Int64())
		case 64:
			return n.Int64()
		}
	}
	return v
}
