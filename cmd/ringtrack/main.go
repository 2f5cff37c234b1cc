package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/askival/ringtrack/internal/analysis"
	"github.com/askival/ringtrack/internal/beam"
	"github.com/askival/ringtrack/internal/config"
	"github.com/askival/ringtrack/internal/dynap"
	"github.com/askival/ringtrack/internal/flatfile"
	"github.com/askival/ringtrack/internal/lattice"
	"github.com/askival/ringtrack/internal/store"
	"github.com/askival/ringtrack/internal/tracking"
	"github.com/askival/ringtrack/internal/tui"
)

var (
	dataDir    string
	format     string
	verbose    bool
	turns      int
	rx, px     float64
	ry, py     float64
	de, dl     float64
	orbit6     bool
	plot       bool
	saveRun    bool
	line       bool
	configFile string
	xmax, ymax float64
	nx, ny     int
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ringtrack",
		Short: "6-D charged-particle tracking for circular and linear accelerators",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ringtrack", "run data directory")
	rootCmd.PersistentFlags().StringVar(&format, "format", "flat", "lattice format (flat or tracy)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "diagnostic output")

	trackCmd := &cobra.Command{
		Use:   "track [lattice]",
		Short: "track a particle through the lattice",
		Args:  cobra.ExactArgs(1),
		RunE:  runTrack,
	}
	addStateFlags(trackCmd)
	trackCmd.Flags().IntVar(&turns, "turns", 512, "number of turns")
	trackCmd.Flags().BoolVar(&line, "line", false, "single line pass instead of ring turns")
	trackCmd.Flags().BoolVar(&plot, "plot", false, "plot turn-by-turn rx")
	trackCmd.Flags().BoolVar(&saveRun, "save", false, "save run to the data directory")
	trackCmd.Flags().StringVar(&configFile, "config", "", "job config file (yaml)")

	orbitCmd := &cobra.Command{
		Use:   "orbit [lattice]",
		Short: "find the closed orbit",
		Args:  cobra.ExactArgs(1),
		RunE:  runOrbit,
	}
	orbitCmd.Flags().BoolVar(&orbit6, "6d", false, "6-D fixed point (requires cavity on)")

	m66Cmd := &cobra.Command{
		Use:   "m66 [lattice]",
		Short: "compute the linearized one-turn matrix",
		Args:  cobra.ExactArgs(1),
		RunE:  runM66,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [lattice]",
		Short: "betatron tunes from turn-by-turn tracking",
		Args:  cobra.ExactArgs(1),
		RunE:  runTune,
	}
	addStateFlags(tuneCmd)
	tuneCmd.Flags().IntVar(&turns, "turns", 512, "number of turns")
	tuneCmd.Flags().BoolVar(&plot, "plot", false, "plot the horizontal spectrum")

	dynapCmd := &cobra.Command{
		Use:   "dynap [lattice]",
		Short: "dynamic aperture scan",
		Args:  cobra.ExactArgs(1),
		RunE:  runDynap,
	}
	dynapCmd.Flags().IntVar(&turns, "turns", 256, "number of turns per particle")
	dynapCmd.Flags().Float64Var(&xmax, "xmax", 0.02, "horizontal scan half-range [m]")
	dynapCmd.Flags().Float64Var(&ymax, "ymax", 0.01, "vertical scan range [m]")
	dynapCmd.Flags().IntVar(&nx, "nx", 21, "horizontal grid points")
	dynapCmd.Flags().IntVar(&ny, "ny", 11, "vertical grid points")

	watchCmd := &cobra.Command{
		Use:   "watch [lattice]",
		Short: "live turn-by-turn view",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	addStateFlags(watchCmd)
	watchCmd.Flags().IntVar(&turns, "turns", 4096, "number of turns")

	infoCmd := &cobra.Command{
		Use:   "info [lattice]",
		Short: "print the lattice",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  runList,
	}

	rootCmd.AddCommand(trackCmd, orbitCmd, m66Cmd, tuneCmd, dynapCmd, watchCmd, infoCmd, listCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&rx, "rx", 0, "initial rx [m]")
	cmd.Flags().Float64Var(&px, "px", 0, "initial px [rad]")
	cmd.Flags().Float64Var(&ry, "ry", 0, "initial ry [m]")
	cmd.Flags().Float64Var(&py, "py", 0, "initial py [rad]")
	cmd.Flags().Float64Var(&de, "de", 0, "initial energy deviation")
	cmd.Flags().Float64Var(&dl, "dl", 0, "initial path lag [m]")
}

func loadAccelerator(path string) (*lattice.Accelerator, error) {
	switch format {
	case "flat":
		return flatfile.Read(path)
	case "tracy":
		return flatfile.ReadTracy(path)
	default:
		return nil, fmt.Errorf("unknown lattice format %q", format)
	}
}

func initPos() beam.Pos {
	return beam.NewPos(rx, px, ry, py, de, dl)
}

func runTrack(cmd *cobra.Command, args []string) error {
	p0 := initPos()
	nrTurns := turns
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return err
		}
		format = cfg.Format
		nrTurns = cfg.Turns
		dataDir = cfg.DataDir
		p0 = cfg.InitPos()
	}

	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}
	if verbose {
		fmt.Printf("lattice %s: %d elements, energy %.4g eV\n", args[0], len(acc.Lattice), acc.Energy)
	}

	p := p0
	if line {
		pos, offset, plane, err := tracking.LinePass(acc, &p, 0, true)
		if err != nil {
			fmt.Printf("particle lost at element %d (plane %s): %v\n", offset, plane, err)
			return nil
		}
		printPos("final", pos[len(pos)-1])
		return nil
	}

	pos, lostTurn, offset, plane, err := tracking.RingPass(acc, &p, nrTurns, true)
	status := "success"
	if err != nil {
		status = err.Error()
		fmt.Printf("particle lost on turn %d at element %d (plane %s)\n", lostTurn, offset, plane)
	} else {
		printPos(fmt.Sprintf("after %d turns", nrTurns), p)
	}

	if plot && len(pos) > 1 {
		series := make([]float64, len(pos))
		for i, q := range pos {
			series[i] = q.RX * 1e3
		}
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("rx [mm] turn by turn"),
		))
	}

	if saveRun {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		meta := store.RunMetadata{
			Lattice: args[0],
			Turns:   nrTurns,
			Status:  status,
		}
		if plane != tracking.PlaneNone {
			meta.LostPlane = plane.String()
			meta.LostTurn = lostTurn
		}
		runID, err := st.Save(meta, pos)
		if err != nil {
			return err
		}
		fmt.Println("saved run", runID)
	}
	return nil
}

func runOrbit(cmd *cobra.Command, args []string) error {
	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}

	var orbit []beam.Pos
	if orbit6 {
		orbit, err = tracking.FindOrbit6(acc, beam.Pos{})
	} else {
		orbit, err = tracking.FindOrbit4(acc, beam.Pos{})
	}
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("closed orbit at element entries"))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "index\tfam_name\trx\tpx\try\tpy\tde\tdl")
	for i, p := range orbit {
		fmt.Fprintf(w, "%d\t%s\t%+.6e\t%+.6e\t%+.6e\t%+.6e\t%+.6e\t%+.6e\n",
			i, acc.Lattice[i].FamName, p.RX, p.PX, p.RY, p.PY, p.DE, p.DL)
	}
	return w.Flush()
}

func runM66(cmd *cobra.Command, args []string) error {
	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}
	_, _, m66, p0, err := tracking.FindM66(acc)
	if err != nil {
		return err
	}
	printPos("fixed point", p0)
	fmt.Println(titleStyle.Render("one-turn matrix"))
	for i := 0; i < 6; i++ {
		for j := 0; j < 6; j++ {
			fmt.Printf("%+.9e ", m66.At(i, j))
		}
		fmt.Println()
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}
	p := initPos()
	if p.RX == 0 && p.RY == 0 {
		// need a betatron oscillation to measure
		p.RX, p.RY = 1e-5, 1e-5
	}
	pos, _, _, _, err := tracking.RingPass(acc, &p, turns, true)
	if err != nil {
		return fmt.Errorf("probe particle lost before %d turns: %w", turns, err)
	}
	rxs := make([]float64, len(pos))
	rys := make([]float64, len(pos))
	for i, q := range pos {
		rxs[i] = q.RX
		rys[i] = q.RY
	}
	nux, nuy := analysis.Tunes(rxs, rys)
	fmt.Printf("nux = %.6f\nnuy = %.6f\n", nux, nuy)

	if plot {
		ps := analysis.PowerSpectrum(rxs)
		fmt.Println(asciigraph.Plot(ps,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("horizontal spectrum"),
		))
	}
	return nil
}

func runDynap(cmd *cobra.Command, args []string) error {
	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}
	xs := linspace(-xmax, xmax, nx)
	ys := linspace(0, ymax, ny)
	res := dynap.Scan(acc, xs, ys, turns)

	survived := 0
	for _, pt := range res.Points {
		if pt.Survived {
			survived++
		}
	}
	fmt.Printf("%d/%d launch points survived %d turns\n", survived, len(res.Points), turns)

	ap := res.Aperture()
	series := make([]float64, len(ap))
	for i, v := range ap {
		series[i] = v * 1e3
	}
	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(10),
		asciigraph.Width(60),
		asciigraph.Caption("|x| aperture [mm] vs y row"),
	))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}
	p := initPos()
	if p.RX == 0 && p.RY == 0 {
		p.RX = 1e-5
	}
	return tui.Run(acc, args[0], p, turns)
}

func runInfo(cmd *cobra.Command, args []string) error {
	acc, err := loadAccelerator(args[0])
	if err != nil {
		return err
	}
	fmt.Println(titleStyle.Render(args[0]))
	fmt.Printf("energy          : %g eV\n", acc.Energy)
	fmt.Printf("harmonic_number : %d\n", acc.HarmonicNumber)
	fmt.Printf("cavity_on       : %v\n", acc.CavityOn)
	fmt.Printf("radiation_on    : %v\n", acc.RadiationOn)
	fmt.Printf("vchamber_on     : %v\n", acc.VChamberOn)
	fmt.Printf("elements        : %d\n", len(acc.Lattice))
	for i := range acc.Lattice {
		fmt.Println(dimStyle.Render(fmt.Sprintf("### %04d ###", i)))
		fmt.Println(acc.Lattice[i].String())
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Println("no runs")
			return nil
		}
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "id\tlattice\tturns\tstatus\ttimestamp")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.ID, r.Lattice, r.Turns, r.Status, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func printPos(label string, p beam.Pos) {
	fmt.Printf("%s: rx=%+.9e px=%+.9e ry=%+.9e py=%+.9e de=%+.9e dl=%+.9e\n",
		label, p.RX, p.PX, p.RY, p.PY, p.DE, p.DL)
}

func linspace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
