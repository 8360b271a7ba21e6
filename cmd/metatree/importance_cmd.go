package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

type importanceCmdConfig struct {
	*rootCmdConfig
	trainInput string
	plotOutput string
}

func importanceCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &importanceCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "importance",
		Short: "Fit on a training CSV and report feature importances",
		Long: `Fit a meta-tree ensemble on a training CSV and report how much each
feature's splits contribute to the posterior, optionally rendered as a
bar chart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			cfg, err := loadConfig(config.configPath)
			if err != nil {
				return err
			}
			model, _, _, err := trainModel(cfg, config.trainInput)
			if err != nil {
				return err
			}

			imp, err := model.CalcFeatureImportances()
			if err != nil {
				return err
			}
			names := featureNames(cfg.Model.DimContinuous, cfg.Model.DimCategorical)
			for i, v := range imp {
				fmt.Printf("%s: %.6f\n", names[i], v)
			}

			if config.plotOutput != "" {
				if err := saveImportancePlot(config.plotOutput, names, imp); err != nil {
					return err
				}
				fmt.Printf("plot written to %s\n", config.plotOutput)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.trainInput), "train", "t", "", "path to the training CSV (required)")
	cmd.PersistentFlags().StringVarP(&(config.plotOutput), "plot", "p", "", "path for a bar-chart image (.png, .svg or .pdf)")
	return cmd
}

func (c *importanceCmdConfig) Validate() error {
	if c.trainInput == "" {
		return fmt.Errorf("required train flag was not set")
	}
	return nil
}

func featureNames(dimContinuous, dimCategorical int) []string {
	names := make([]string, 0, dimContinuous+dimCategorical)
	for i := 0; i < dimContinuous; i++ {
		names = append(names, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < dimCategorical; i++ {
		names = append(names, fmt.Sprintf("c%d", i))
	}
	return names
}

func saveImportancePlot(path string, names []string, imp []float64) error {
	p := plot.New()
	p.Title.Text = "Feature importances"
	p.Y.Label.Text = "importance"

	bars, err := plotter.NewBarChart(plotter.Values(imp), vg.Points(24))
	if err != nil {
		return err
	}
	p.Add(bars)
	p.NominalX(names...)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}
