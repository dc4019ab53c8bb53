package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rgehrsitz/rpmc/internal/config"
	"github.com/rgehrsitz/rpmc/internal/domain"
	"github.com/rgehrsitz/rpmc/internal/output"
	"github.com/rgehrsitz/rpmc/internal/socialsecurity"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate a household input file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			a.logger.Debug("input validated", zap.String("file", args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %s, %d member(s), %s starting balance, %d-year horizon\n",
				args[0],
				params.Name,
				len(params.Household.Members()),
				output.FormatCurrency(params.Buckets.Total().InexactFloat64()),
				params.Household.HorizonYears(),
			)
			return nil
		},
	}
}

func (a *app) exampleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "example",
		Short: "Write an example household input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			couple, _ := cmd.Flags().GetBool("couple")
			params := domain.ExampleSingle()
			if couple {
				params = domain.ExampleCouple()
			}

			path, _ := cmd.Flags().GetString("output")
			if path == "" {
				return config.NewInputParser().Write(cmd.OutOrStdout(), params)
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := config.NewInputParser().Write(f, params); err != nil {
				_ = f.Close()
				return err
			}
			a.logger.Info("example written", zap.String("path", path))
			return f.Close()
		},
	}
	cmd.Flags().Bool("couple", false, "Write the married-couple example")
	cmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func (a *app) benefitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "benefit [input-file]",
		Short: "Show each member's Social Security benefit by claim age",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := config.NewInputParser().LoadFromFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), output.FormatBenefits(memberBenefits(params)))
			return nil
		},
	}
}

// memberBenefits resolves every member's benefit in start-year dollars
func memberBenefits(p domain.SimulationParameters) []output.MemberBenefit {
	calc := socialsecurity.NewCalculator(socialsecurity.DefaultRules().WithWageGrowth(p.Returns.WageGrowth))

	var out []output.MemberBenefit
	for _, m := range p.Household.Members() {
		b := calc.BenefitFor(m, p.StartYear)
		mb := output.MemberBenefit{
			Name:     m.Name,
			ClaimAge: m.SSClaimAge,
			PIA:      b.PIA.InexactFloat64(),
			Factor:   b.Factor.InexactFloat64(),
			Monthly:  b.Monthly.InexactFloat64(),
		}
		for age := domain.MinClaimAge; age <= domain.MaxClaimAge; age++ {
			mb.ByClaimAge = append(mb.ByClaimAge, calc.BenefitAtClaimAge(b.PIA, m.BirthYear, age*12).InexactFloat64())
		}
		out = append(out, mb)
	}
	return out
}
