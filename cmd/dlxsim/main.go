package main

import (
	"fmt"
	"io"
	"os"

	"github.com/oisee/dlxsim/pkg/cpu"
	"github.com/oisee/dlxsim/pkg/inst"
	"github.com/oisee/dlxsim/pkg/program"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dlxsim",
		Short: "dlxsim — a 5-stage pipelined DLX instruction-level simulator",
	}

	var delaySlotDepth int
	var relativeJump bool
	var cycles int
	var verbose bool

	runCmd := &cobra.Command{
		Use:   "run <program.hex>",
		Short: "Load a hex instruction listing and step the pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if delaySlotDepth < 1 || delaySlotDepth > 3 {
				return fmt.Errorf("--delay-slot-depth must be 1, 2, or 3, got %d", delaySlotDepth)
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			words, err := program.Load(f)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", args[0], err)
			}

			cfg := cpu.Config{
				DelaySlotDepth: cpu.DelaySlotDepth(delaySlotDepth),
				RelativeJump:   relativeJump,
			}
			opts := []cpu.Option{}
			if !verbose {
				opts = append(opts, cpu.WithOutput(io.Discard))
			}
			c := cpu.Create(cfg, opts...)

			for i, w := range words {
				if err := c.LoadInstruction(i, w); err != nil {
					return fmt.Errorf("failed to load word %d: %w", i, err)
				}
			}

			fmt.Printf("Loaded %d words, delay_slot_depth=%d, relative_jump=%v\n",
				len(words), delaySlotDepth, relativeJump)

			for i := 0; i < cycles; i++ {
				if err := c.Step(); err != nil {
					return fmt.Errorf("cycle %d: %w", i, err)
				}
			}

			fmt.Printf("\nAfter %d cycles: pc=%d\n", cycles, c.PC())
			for i := 0; i < 32; i++ {
				v, _ := c.Reg(i)
				if v != 0 {
					fmt.Printf("  R%-2d = 0x%08X\n", i, v)
				}
			}
			return nil
		},
	}
	runCmd.Flags().IntVar(&delaySlotDepth, "delay-slot-depth", 3, "PC redirect stage depth: 1 (EX), 2 (MEM), or 3 (WB)")
	runCmd.Flags().BoolVar(&relativeJump, "relative-jump", true, "Branch targets relative to nextPC (false: absolute)")
	runCmd.Flags().IntVar(&cycles, "cycles", 16, "Number of cycles to step")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print per-stage diagnostic lines")

	disasmCmd := &cobra.Command{
		Use:   "disasm <hex-word>",
		Short: "Disassemble a single 32-bit instruction word",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var word uint32
			if _, err := fmt.Sscanf(args[0], "0x%x", &word); err != nil {
				if _, err := fmt.Sscanf(args[0], "%x", &word); err != nil {
					return fmt.Errorf("not a hex word: %s", args[0])
				}
			}
			text := inst.Disassemble(word)
			if text == "" {
				text = "(unrecognized opcode)"
			}
			fmt.Println(text)
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, disasmCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
