package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gridseq/midi"
	"gridseq/sequencer"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("(waiting up to 3 seconds...)")
		names, err := midi.ListOutPorts()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Println("No MIDI output ports found")
			return nil
		}
		for i, name := range names {
			fmt.Printf("  [%d] %s\n", i, name)
		}
		return nil
	},
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the instruments a track can use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOLOR\tPROGRAM\tPOLY")
		for _, inst := range sequencer.InstrumentList() {
			program := fmt.Sprint(inst.Program)
			if inst.Percussion {
				program = "drums"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n", inst.ID, inst.Name, inst.Color, program, inst.Polyphonic)
		}
		return w.Flush()
	},
}
