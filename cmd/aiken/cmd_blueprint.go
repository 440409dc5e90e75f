package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"aiken/internal/blueprint"
	"aiken/internal/project"
)

var blueprintFlags struct {
	validator string
	network   string
	out       string
}

var blueprintCmd = &cobra.Command{
	Use:   "blueprint",
	Short: "Work with the plutus.json blueprint",
}

var blueprintAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address a validator locks funds to",
	RunE:  runBlueprintAddress,
}

var blueprintPolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Print a minting validator's policy ID",
	RunE:  runBlueprintPolicy,
}

var blueprintHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print a validator's script hash",
	RunE:  runBlueprintHash,
}

var blueprintApplyCmd = &cobra.Command{
	Use:   "apply {cbor-hex}",
	Short: "Apply a Plutus data parameter to a validator",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlueprintApply,
}

var blueprintConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Export a validator as a cardano-cli text envelope",
	RunE:  runBlueprintConvert,
}

func init() {
	pf := blueprintCmd.PersistentFlags()
	pf.StringVarP(&blueprintFlags.validator, "validator", "v", "", "Validator title (optional with a single validator)")

	blueprintAddressCmd.Flags().StringVar(&blueprintFlags.network, "network", "", "Override the configured network (mainnet, preprod, preview)")
	blueprintApplyCmd.Flags().StringVarP(&blueprintFlags.out, "out", "o", "", "Write the updated blueprint to a file instead of stdout")

	blueprintCmd.AddCommand(blueprintAddressCmd)
	blueprintCmd.AddCommand(blueprintPolicyCmd)
	blueprintCmd.AddCommand(blueprintHashCmd)
	blueprintCmd.AddCommand(blueprintApplyCmd)
	blueprintCmd.AddCommand(blueprintConvertCmd)
}

// openBlueprint loads the project and its blueprint, then finds the
// validator selected by --validator.
func openBlueprint() (*project.Project, *blueprint.Blueprint, *blueprint.Validator, error) {
	p, err := openProject()
	if err != nil {
		return nil, nil, nil, err
	}
	bp, err := blueprint.LoadFromPath(p.BlueprintPath())
	if err != nil {
		return nil, nil, nil, err
	}
	v, err := bp.Find(blueprintFlags.validator)
	if err != nil {
		return nil, nil, nil, err
	}
	return p, bp, v, nil
}

func runBlueprintAddress(cmd *cobra.Command, _ []string) error {
	p, _, v, err := openBlueprint()
	if err != nil {
		return err
	}
	if len(v.Parameters) > 0 {
		return fmt.Errorf("validator %q still expects %d parameter(s); apply them first", v.Title, len(v.Parameters))
	}
	digest, err := hex.DecodeString(v.Hash)
	if err != nil {
		return fmt.Errorf("validator %q: hash is not hex", v.Title)
	}
	network := blueprintFlags.network
	if network == "" {
		network = p.Config.NetworkID()
	}
	addr, err := blueprint.Address(network, digest)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), addr)
	return nil
}

func runBlueprintPolicy(cmd *cobra.Command, _ []string) error {
	_, bp, v, err := openBlueprint()
	if err != nil {
		return err
	}
	if len(v.Parameters) > 0 {
		return fmt.Errorf("validator %q still expects %d parameter(s); apply them first", v.Title, len(v.Parameters))
	}
	code, err := hex.DecodeString(v.CompiledCode)
	if err != nil {
		return fmt.Errorf("validator %q: compiledCode is not hex", v.Title)
	}
	policy, err := blueprint.PolicyID(bp.Preamble.PlutusVersion, code)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), policy)
	return nil
}

func runBlueprintHash(cmd *cobra.Command, _ []string) error {
	_, _, v, err := openBlueprint()
	if err != nil {
		return err
	}
	if v.Hash == "" {
		return fmt.Errorf("validator %q has no hash; run 'aiken build' first", v.Title)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.Hash)
	return nil
}

func runBlueprintApply(cmd *cobra.Command, args []string) error {
	data, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("parameter is not hex-encoded CBOR: %w", err)
	}
	_, bp, v, err := openBlueprint()
	if err != nil {
		return err
	}
	if err := bp.ApplyParameter(v, data); err != nil {
		return err
	}
	if blueprintFlags.out != "" {
		return bp.Save(blueprintFlags.out)
	}
	encoded, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}

func runBlueprintConvert(cmd *cobra.Command, _ []string) error {
	_, bp, v, err := openBlueprint()
	if err != nil {
		return err
	}
	env, err := blueprint.Convert(bp.Preamble.PlutusVersion, v)
	if err != nil {
		return err
	}
	encoded, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
	return nil
}
