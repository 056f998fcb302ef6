package indicator

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

type MACDConfig struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

type BollingerConfig struct {
	Period     int     `yaml:"period"`
	Multiplier float64 `yaml:"mult"`
}

type StochasticConfig struct {
	Period int `yaml:"period"`
	Signal int `yaml:"signal"`
}

// Config lists the indicators computed by an Engine. Empty period lists disable the
// matching averages, every other period must be positive.
type Config struct {
	SMAPeriods      []int            `yaml:"sma_periods"`
	EMAPeriods      []int            `yaml:"ema_periods"`
	RSIPeriod       int              `yaml:"rsi_period"`
	MACD            MACDConfig       `yaml:"macd"`
	Bollinger       BollingerConfig  `yaml:"bollinger"`
	Stochastic      StochasticConfig `yaml:"stochastic"`
	ATRPeriod       int              `yaml:"atr_period"`
	VolumeSMAPeriod int              `yaml:"volume_sma_period"`
	VWAP            bool             `yaml:"vwap"`
}

func DefaultConfig() Config {
	return Config{
		SMAPeriods:      []int{20, 50, 200},
		EMAPeriods:      []int{12, 26, 50},
		RSIPeriod:       14,
		MACD:            MACDConfig{Fast: 12, Slow: 26, Signal: 9},
		Bollinger:       BollingerConfig{Period: 20, Multiplier: 2.0},
		Stochastic:      StochasticConfig{Period: 14, Signal: 3},
		ATRPeriod:       14,
		VolumeSMAPeriod: 20,
		VWAP:            true,
	}
}

// Validate reports every invalid parameter at once. Each joined error is a
// *ConfigurationError.
func (c Config) Validate() error {
	var err error

	err = multierr.Append(err, validatePeriods("sma_periods", c.SMAPeriods))
	err = multierr.Append(err, validatePeriods("ema_periods", c.EMAPeriods))
	err = multierr.Append(err, validatePeriod("rsi_period", c.RSIPeriod))
	err = multierr.Append(err, validatePeriod("macd.fast", c.MACD.Fast))
	err = multierr.Append(err, validatePeriod("macd.slow", c.MACD.Slow))
	err = multierr.Append(err, validatePeriod("macd.signal", c.MACD.Signal))
	if c.MACD.Fast > 0 && c.MACD.Slow > 0 && c.MACD.Fast >= c.MACD.Slow {
		err = multierr.Append(err, configError("macd.fast", "must be lower than macd.slow (%d >= %d)",
			c.MACD.Fast, c.MACD.Slow))
	}
	err = multierr.Append(err, validatePeriod("bollinger.period", c.Bollinger.Period))
	if m := c.Bollinger.Multiplier; math.IsNaN(m) || math.IsInf(m, 0) || m <= 0 {
		err = multierr.Append(err, configError("bollinger.mult", "must be a positive number, got %v", m))
	}
	err = multierr.Append(err, validatePeriod("stochastic.period", c.Stochastic.Period))
	err = multierr.Append(err, validatePeriod("stochastic.signal", c.Stochastic.Signal))
	err = multierr.Append(err, validatePeriod("atr_period", c.ATRPeriod))
	err = multierr.Append(err, validatePeriod("volume_sma_period", c.VolumeSMAPeriod))

	return err
}

func validatePeriod(field string, period int) error {
	if period <= 0 {
		return configError(field, "must be positive, got %d", period)
	}
	return nil
}

func validatePeriods(field string, periods []int) error {
	var err error
	seen := make(map[int]bool, len(periods))
	for i, period := range periods {
		err = multierr.Append(err, validatePeriod(fmt.Sprintf("%s[%d]", field, i), period))
		if seen[period] {
			err = multierr.Append(err, configError(field, "duplicated period %d", period))
		}
		seen[period] = true
	}
	return err
}

const (
	ColumnMACDLine      = "macd_line"
	ColumnMACDSignal    = "macd_signal"
	ColumnMACDHistogram = "macd_histogram"
	ColumnBBMiddle      = "bb_middle"
	ColumnBBUpper       = "bb_upper"
	ColumnBBLower       = "bb_lower"
	ColumnBBWidth       = "bb_width"
	ColumnStochK        = "stoch_k"
	ColumnStochD        = "stoch_d"
	ColumnVWAP          = "vwap"
)

func SMAColumn(period int) string       { return fmt.Sprintf("sma_%d", period) }
func EMAColumn(period int) string       { return fmt.Sprintf("ema_%d", period) }
func RSIColumn(period int) string       { return fmt.Sprintf("rsi_%d", period) }
func ATRColumn(period int) string       { return fmt.Sprintf("atr_%d", period) }
func VolumeSMAColumn(period int) string { return fmt.Sprintf("volume_sma_%d", period) }
