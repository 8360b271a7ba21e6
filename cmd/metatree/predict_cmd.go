package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	*rootCmdConfig
	trainInput string
	input      string
	output     string
	variance   bool
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Fit on a training CSV and predict targets for new data",
		Long: `Fit a meta-tree ensemble on a training CSV, then predict the target
for every row of an input CSV without a target column. Predictions are
written as CSV, one row per input row.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			cfg, err := loadConfig(config.configPath)
			if err != nil {
				return err
			}
			model, scaler, _, err := trainModel(cfg, config.trainInput)
			if err != nil {
				return err
			}

			in, err := readDataset(config.input, cfg.Model.DimContinuous, cfg.Model.DimCategorical, false)
			if err != nil {
				return err
			}
			if err := scaleInput(scaler, in); err != nil {
				return err
			}

			preds, err := model.Predict(in.xc, in.xcat)
			if err != nil {
				return err
			}
			if config.variance {
				vars, err := model.CalcPredVar()
				if err != nil {
					return err
				}
				return writePredictionsWithVariance(config.output, preds, vars)
			}
			return writePredictions(config.output, preds)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.trainInput), "train", "t", "", "path to the training CSV (required)")
	cmd.PersistentFlags().StringVarP(&(config.input), "input", "i", "", "path to the input CSV without a target column (required)")
	cmd.PersistentFlags().StringVarP(&(config.output), "output", "o", "", "path for the prediction CSV (defaults to STDOUT)")
	cmd.PersistentFlags().BoolVar(&(config.variance), "variance", false, "add a predictive-variance column (normal and linear-regression sub-models)")
	return cmd
}

func (c *predictCmdConfig) Validate() error {
	if c.trainInput == "" {
		return fmt.Errorf("required train flag was not set")
	}
	if c.input == "" {
		return fmt.Errorf("required input flag was not set")
	}
	return nil
}
