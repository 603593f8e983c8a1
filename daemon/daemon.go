package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/gorilla/mux"
	"github.com/ori-shem-tov/stark-vrf-oracle/codec"
	"github.com/ori-shem-tov/stark-vrf-oracle/ledger"
	"github.com/ori-shem-tov/stark-vrf-oracle/signer"
	"github.com/ori-shem-tov/stark-vrf-oracle/typeddata"
	"github.com/ori-shem-tov/stark-vrf-oracle/vrf"
	log "github.com/sirupsen/logrus"
)

var outsideExecutionTTL = uint64(600) // seconds the wrapping outside execution stays valid

// StateReader is the ledger access the daemon needs to derive seeds.
type StateReader interface {
	ProviderNonce(ctx context.Context, vrfAccount, address *felt.Felt) (*felt.Felt, error)
	Close()
}

// Dialer opens a StateReader for an rpc url.
type Dialer func(ctx context.Context, url string) (StateReader, error)

func dialLedger(ctx context.Context, url string) (StateReader, error) {
	return ledger.Dial(ctx, url)
}

// VRFDaemon serves proofs and signs outside executions that submit randomness for the
// request_random calls they contain.
type VRFDaemon struct {
	Config Config

	Prover vrf.KeyedProver     // proves randomness, locally or on a VRF server
	Signer *signer.LocalSigner // the VRF account

	dial    Dialer
	now     func() time.Time
	nonce   func() (*felt.Felt, error)
	metrics *metrics
	limiter *clientLimiter
	router  *mux.Router
}

// Option customizes a VRFDaemon.
type Option func(*VRFDaemon)

// WithDialer replaces the ledger dialer.
func WithDialer(d Dialer) Option {
	return func(v *VRFDaemon) { v.dial = d }
}

// WithClock replaces the time source used for execute_before.
func WithClock(now func() time.Time) Option {
	return func(v *VRFDaemon) { v.now = now }
}

// WithProver replaces the prover built from the config.
func WithProver(p vrf.KeyedProver) Option {
	return func(v *VRFDaemon) { v.Prover = p }
}

// WithNonceSource replaces the random nonce of the wrapping outside execution.
func WithNonceSource(nonce func() (*felt.Felt, error)) Option {
	return func(v *VRFDaemon) { v.nonce = nonce }
}

// NewFromConfig loads the config file at path and builds the daemon.
func NewFromConfig(path string, opts ...Option) (*VRFDaemon, error) {
	conf, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return New(conf, opts...)
}

func New(conf Config, opts ...Option) (*VRFDaemon, error) {
	conf.applyDefaults()
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	prover, err := newProver(conf)
	if err != nil {
		return nil, err
	}
	trusted, err := parseTrustedProxies(conf.TrustedProxies)
	if err != nil {
		return nil, err
	}
	address, err := codec.ParseFelt(conf.AccountAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account address: %v", err)
	}
	key, err := signer.ParsePrivateKey(conf.AccountPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account private key: %v", err)
	}
	accountSigner, err := signer.NewLocalSigner(address, key)
	if err != nil {
		return nil, err
	}

	v := &VRFDaemon{
		Config:  conf,
		Prover:  prover,
		Signer:  accountSigner,
		dial:    dialLedger,
		now:     time.Now,
		nonce:   typeddata.RandomNonce,
		metrics: newMetrics(),
		limiter: newClientLimiter(conf.RateLimit, conf.RateBurst, time.Duration(conf.ClientTTL)*time.Second, trusted),
	}
	for _, opt := range opts {
		opt(v)
	}
	v.router = v.routes()

	log.WithFields(log.Fields{
		"account":    codec.Hex(address),
		"prover_url": conf.ProverURL,
	}).Info("vrf daemon configured")
	return v, nil
}

func newProver(conf Config) (vrf.KeyedProver, error) {
	if conf.ProverURL != "" {
		return vrf.NewRemoteProver(conf.ProverURL, nil), nil
	}
	starkVRF, err := vrf.NewStarkVRF(conf.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse secret key: %v", err)
	}
	return starkVRF, nil
}

// Handler returns the HTTP handler of the daemon.
func (v *VRFDaemon) Handler() http.Handler {
	return v.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (v *VRFDaemon) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              v.Config.Addr(),
		Handler:           v.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go v.limiter.run(ctx, time.Duration(v.Config.ClientTTL)*time.Second)

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %v", err)
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(v.Config.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed graceful shutdown: %v", err)
		}
		return nil
	}
}
