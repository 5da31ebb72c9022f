package preprocess

import "github.com/KaramelBytes/tidyqa-cli/internal/apperr"

// EncoderKind names a categorical encoder.
type EncoderKind string

const (
	EncoderOneHot  EncoderKind = "onehot"
	EncoderTarget  EncoderKind = "target"
	EncoderOrdinal EncoderKind = "ordinal"
)

// ScalerKind names a numeric scaler.
type ScalerKind string

const (
	ScalerStandard ScalerKind = "standard"
	ScalerMinMax   ScalerKind = "minmax"
	ScalerRobust   ScalerKind = "robust"
)

// Config selects the optional encoding and scaling steps.
type Config struct {
	Encode  bool        `mapstructure:"encode_categoricals" yaml:"encode_categoricals" json:"encode_categoricals"`
	Encoder EncoderKind `mapstructure:"encoder" yaml:"encoder" json:"encoder"`
	Target  string      `mapstructure:"target" yaml:"target" json:"target,omitempty"`
	Scale   bool        `mapstructure:"scale_numeric" yaml:"scale_numeric" json:"scale_numeric"`
	Scaler  ScalerKind  `mapstructure:"scaler" yaml:"scaler" json:"scaler"`
}

// DefaultConfig one-hot encodes and standardizes.
func DefaultConfig() Config {
	return Config{
		Encode:  true,
		Encoder: EncoderOneHot,
		Scale:   true,
		Scaler:  ScalerStandard,
	}
}

// Validate checks the encoder and scaler names.
func (c Config) Validate() error {
	if err := validEncoder(c.Encoder); err != nil {
		return err
	}
	return validScaler(c.Scaler)
}

func validEncoder(k EncoderKind) error {
	switch k {
	case EncoderOneHot, EncoderTarget, EncoderOrdinal:
		return nil
	}
	return apperr.Config("unknown encoder %q (use onehot, target or ordinal)", k)
}

func validScaler(k ScalerKind) error {
	switch k {
	case ScalerStandard, ScalerMinMax, ScalerRobust:
		return nil
	}
	return apperr.Config("unknown scaler %q (use standard, minmax or robust)", k)
}
