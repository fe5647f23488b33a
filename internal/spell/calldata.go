package spell

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	clierr "github.com/ggonzalez94/defi-composer/internal/errors"
	"github.com/ggonzalez94/defi-composer/internal/registry"
	"github.com/holiman/uint256"
)

var castABI = mustABI(registry.DSACastABI)

// stepArguments is the connector method signature every step is encoded with:
// method(address token, uint256 amt, uint256 slippage, uint256 getId, uint256 setId).
var stepArguments = mustArguments("address", "uint256", "uint256", "uint256", "uint256")

// EncodeCast ABI-encodes steps as a DSA cast call. Tokens must resolve to a
// registry address and every amount must fit in 256 bits.
func EncodeCast(steps []Step, origin string) (string, error) {
	if origin != "" && !common.IsHexAddress(origin) {
		return "", clierr.New(clierr.CodeUsage, "cast origin must be a valid EVM address")
	}
	targets := make([]string, 0, len(steps))
	datas := make([][]byte, 0, len(steps))
	for i, step := range steps {
		data, err := encodeStep(step)
		if err != nil {
			return "", clierr.Wrap(clierr.CodeUsage, fmt.Sprintf("encode step %d (%s.%s)", i, step.Connector, step.Method), err)
		}
		targets = append(targets, step.Connector)
		datas = append(datas, data)
	}
	packed, err := castABI.Pack("cast", targets, datas, common.HexToAddress(origin))
	if err != nil {
		return "", clierr.Wrap(clierr.CodeInternal, "pack cast calldata", err)
	}
	return "0x" + common.Bytes2Hex(packed), nil
}

func encodeStep(step Step) ([]byte, error) {
	if len(step.Args) != len(stepArguments) {
		return nil, fmt.Errorf("expected %d args, got %d", len(stepArguments), len(step.Args))
	}
	token, ok := registry.Token(step.Args[0])
	if !ok {
		return nil, fmt.Errorf("token %q has no known address", step.Args[0])
	}
	values := []any{common.HexToAddress(token.Address)}
	for _, raw := range step.Args[1:] {
		n, err := uint256.FromDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("amount %q out of uint256 range: %w", raw, err)
		}
		values = append(values, n.ToBig())
	}
	method := abi.NewMethod(step.Method, step.Method, abi.Function, "nonpayable", false, false, stepArguments, nil)
	packed, err := stepArguments.Pack(values...)
	if err != nil {
		return nil, err
	}
	return append(method.ID, packed...), nil
}

func mustABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

func mustArguments(types ...string) abi.Arguments {
	args := make(abi.Arguments, 0, len(types))
	for _, name := range types {
		typ, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(err)
		}
		args = append(args, abi.Argument{Type: typ})
	}
	return args
}
