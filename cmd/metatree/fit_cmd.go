package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bayesgo/metatree/metatree"
)

type fitCmdConfig struct {
	*rootCmdConfig
	trainInput string
	showMAP    bool
}

func fitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &fitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a meta-tree ensemble and print a summary",
		Long: `Fit a meta-tree ensemble on a training CSV and print the ensemble
weights, the training-data fit, and optionally the MAP tree.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Validate(); err != nil {
				return err
			}
			cfg, err := loadConfig(config.configPath)
			if err != nil {
				return err
			}
			model, _, train, err := trainModel(cfg, config.trainInput)
			if err != nil {
				return err
			}

			trees, probs := model.Metatrees()
			fmt.Printf("ensemble: %d meta-trees from %d samples\n", len(trees), train.n)
			printTopWeights(probs, 5)

			if err := printFitMetrics(cfg, model, train); err != nil {
				return err
			}

			if config.showMAP {
				root, err := model.EstimateParams(metatree.Loss01)
				if err != nil {
					return err
				}
				fmt.Println("MAP tree:")
				printTree(os.Stdout, root, cfg.Model.DimContinuous, 1)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.trainInput), "train", "t", "", "path to the training CSV (required)")
	cmd.PersistentFlags().BoolVar(&(config.showMAP), "map", false, "print the MAP tree extracted from the posterior")
	return cmd
}

func (c *fitCmdConfig) Validate() error {
	if c.trainInput == "" {
		return fmt.Errorf("required train flag was not set")
	}
	return nil
}

func printTopWeights(probs []float64, k int) {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return probs[idx[a]] > probs[idx[b]] })
	if k > len(idx) {
		k = len(idx)
	}
	for rank := 0; rank < k; rank++ {
		fmt.Printf("  tree %d: weight %.4f\n", idx[rank], probs[idx[rank]])
	}
}

func printFitMetrics(cfg *modelConfig, model *metatree.LearnModel, train *dataset) error {
	preds, err := model.Predict(train.xc, train.xcat)
	if err != nil {
		return err
	}
	return printMetrics(cfg, model, train, preds, "training")
}

// printTree writes an indented sketch of a meta-tree.
func printTree(w *os.File, node *metatree.Node, dimContinuous int, indent int) {
	pad := strings.Repeat("  ", indent)
	if node.IsLeaf() {
		fmt.Fprintf(w, "%sleaf\n", pad)
		return
	}
	if node.K() < dimContinuous {
		fmt.Fprintf(w, "%ssplit on continuous feature %d, thresholds %v\n", pad, node.K(), node.Thresholds())
	} else {
		fmt.Fprintf(w, "%ssplit on categorical feature %d\n", pad, node.K()-dimContinuous)
	}
	for _, child := range node.Children() {
		printTree(w, child, dimContinuous, indent+1)
	}
}
