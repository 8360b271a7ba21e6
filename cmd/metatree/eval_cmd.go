package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bayesgo/metatree/metatree"
	"github.com/bayesgo/metatree/metrics"
)

type evalCmdConfig struct {
	*rootCmdConfig
	trainInput string
	testInput  string
}

func evalCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &evalCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Fit on a training CSV and evaluate on a test CSV",
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

			test, err := readDataset(config.testInput, cfg.Model.DimContinuous, cfg.Model.DimCategorical, true)
			if err != nil {
				return err
			}
			if err := scaleInput(scaler, test); err != nil {
				return err
			}

			preds, err := model.Predict(test.xc, test.xcat)
			if err != nil {
				return err
			}
			return printMetrics(cfg, model, test, preds, "test")
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.trainInput), "train", "t", "", "path to the training CSV (required)")
	cmd.PersistentFlags().StringVar(&(config.testInput), "test", "", "path to the test CSV (required)")
	return cmd
}

func (c *evalCmdConfig) Validate() error {
	if c.trainInput == "" {
		return fmt.Errorf("required train flag was not set")
	}
	if c.testInput == "" {
		return fmt.Errorf("required test flag was not set")
	}
	return nil
}

// printMetrics reports the fit of preds against ds.y, choosing the
// metrics by the sub-model family.
func printMetrics(cfg *modelConfig, model *metatree.LearnModel, ds *dataset, preds []float64, label string) error {
	if cfg.isClassification() {
		acc, err := metrics.Accuracy(ds.y, preds)
		if err != nil {
			return err
		}
		probMat, err := model.PredictProba(ds.xc, ds.xcat)
		if err != nil {
			return err
		}
		r, c := probMat.Dims()
		probs := make([][]float64, r)
		for i := 0; i < r; i++ {
			probs[i] = make([]float64, c)
			for j := 0; j < c; j++ {
				probs[i][j] = probMat.At(i, j)
			}
		}
		ll, err := metrics.LogLoss(ds.y, probs, 0)
		if err != nil {
			return err
		}
		fmt.Printf("%s accuracy: %.4f\n", label, acc)
		fmt.Printf("%s log loss: %.4f\n", label, ll)
		return nil
	}

	mse, err := metrics.MSE(ds.y, preds)
	if err != nil {
		return err
	}
	rmse, err := metrics.RMSE(ds.y, preds)
	if err != nil {
		return err
	}
	mae, err := metrics.MAE(ds.y, preds)
	if err != nil {
		return err
	}
	r2, err := metrics.R2Score(ds.y, preds)
	if err != nil {
		return err
	}
	fmt.Printf("%s MSE:  %.6f\n", label, mse)
	fmt.Printf("%s RMSE: %.6f\n", label, rmse)
	fmt.Printf("%s MAE:  %.6f\n", label, mae)
	fmt.Printf("%s R2:   %.6f\n", label, r2)
	return nil
}
