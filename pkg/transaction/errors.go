package transaction

import "errors"

// Sentinel errors returned by the package. Callers match them with errors.Is;
// call sites wrap them with fmt.Errorf("...: %w", ...) context.
var (
	// ErrMalformedTransaction indicates raw bytes that do not follow the
	// transaction wire layout.
	ErrMalformedTransaction = errors.New("malformed transaction bytes")

	// ErrUnsupportedScript indicates a spent output script that does not
	// classify into a signable input kind.
	ErrUnsupportedScript = errors.New("unsupported output script type")

	// ErrUnsupportedInputType indicates a signing operation attempted on an
	// input deserialized without spend-type information.
	ErrUnsupportedInputType = errors.New("input does not support signing operations")

	// ErrMissingSpendContext indicates an operation that needs the spent
	// output (amount and script) for an input that does not carry it.
	ErrMissingSpendContext = errors.New("input is missing spent output information")

	// ErrInvalidSatoshis indicates an output amount outside [0, MaxMoney].
	ErrInvalidSatoshis = errors.New("invalid satoshi amount")

	// ErrInvalidSignature indicates a signature that fails ECDSA
	// verification against its claimed public key and digest.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrNoMatchingPublicKey indicates a signature whose public key is not
	// part of a multisig input's key set.
	ErrNoMatchingPublicKey = errors.New("signature public key not part of key set")

	// ErrAlreadyFullySigned indicates a signature added to an input that has
	// already reached its threshold.
	ErrAlreadyFullySigned = errors.New("input already fully signed")

	// ErrRedeemScriptMismatch indicates a redeem script that does not match
	// the spent output's locking script.
	ErrRedeemScriptMismatch = errors.New("redeem script does not match output script")

	// ErrInvalidTransaction indicates a structural invariant violation found
	// by Verify.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidSorting indicates a reorder operation that dropped or
	// duplicated elements.
	ErrInvalidSorting = errors.New("sorting function dropped or duplicated elements")

	// ErrInvalidLockTime indicates a lock time outside the representable
	// range for its kind.
	ErrInvalidLockTime = errors.New("invalid lock time")
)

// Serialization policy errors. Each corresponds to one independently
// disableable check in SerializeOpts.
var (
	ErrFeeDifferent         = errors.New("unspent value is different from specified fee")
	ErrFeeTooLarge          = errors.New("fee is too large")
	ErrFeeTooSmall          = errors.New("fee is too small")
	ErrChangeAddressMissing = errors.New("change address is missing")
	ErrDustOutputs          = errors.New("transaction has dust outputs")
	ErrMissingSignatures    = errors.New("transaction is missing signatures")
	ErrOutputExceedsInput   = errors.New("output amount exceeds input amount")
)
