package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strconv"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/config"
)

func runFields(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: awhere fields <list|get|create|rename|delete> [flags]")
	}
	verb, rest := args[0], args[1:]

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	switch verb {
	case "list":
		return listFields(ctx, client, rest)
	case "get":
		return getField(ctx, client, rest)
	case "create":
		return createField(ctx, client, rest)
	case "rename":
		return renameField(ctx, client, rest)
	case "delete":
		return deleteField(ctx, client, rest)
	default:
		return fmt.Errorf("unknown fields verb %q, want list, get, create, rename or delete", verb)
	}
}

func listFields(ctx context.Context, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("fields list", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fields, err := client.Fields.List(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(fields)
	}
	if len(fields) == 0 {
		fmt.Println("No fields registered")
		return nil
	}
	for _, f := range fields {
		fmt.Printf("%-24s %-20s %9.4f,%9.4f  %s\n",
			f.ID, f.Name, f.CenterPoint.Latitude, f.CenterPoint.Longitude, f.FarmID)
	}
	return nil
}

func getField(ctx context.Context, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("fields get", flag.ContinueOnError)
	id := fs.String("id", "", "field id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("fields get needs -id")
	}

	field, err := client.Fields.Get(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(field)
}

func createField(ctx context.Context, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("fields create", flag.ContinueOnError)
	id := fs.String("id", "", "field id")
	name := fs.String("name", "", "display name")
	lat := fs.Float64("lat", 0, "center point latitude")
	lon := fs.Float64("lon", 0, "center point longitude")
	farm := fs.String("farm", "", "farm id")
	acres := fs.Float64("acres", 0, "field size in acres")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("fields create needs -id")
	}

	field, err := client.Fields.Create(ctx, awhere.Field{
		ID:          *id,
		Name:        *name,
		FarmID:      *farm,
		Acres:       *acres,
		CenterPoint: awhere.Point{Latitude: *lat, Longitude: *lon},
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created field %s\n", field.ID)
	return nil
}

func renameField(ctx context.Context, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("fields rename", flag.ContinueOnError)
	id := fs.String("id", "", "field id")
	name := fs.String("name", "", "new display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *name == "" {
		return errors.New("fields rename needs -id and -name")
	}

	field, err := client.Fields.Update(ctx, *id, awhere.UpdateName(*name))
	if err != nil {
		return err
	}
	fmt.Printf("Renamed field %s to %q\n", field.ID, field.Name)
	return nil
}

func deleteField(ctx context.Context, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("fields delete", flag.ContinueOnError)
	id := fs.String("id", "", "field id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("fields delete needs -id")
	}

	if err := client.Fields.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Printf("Deleted field %s\n", *id)
	return nil
}

func runPlantings(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: awhere plantings <list|current|create|delete> [flags]")
	}
	verb, rest := args[0], args[1:]

	client, err := newClient(cfg)
	if err != nil {
		return err
	}

	switch verb {
	case "list":
		return listPlantings(ctx, cfg, client, rest)
	case "current":
		return currentPlanting(ctx, cfg, client, rest)
	case "create":
		return createPlanting(ctx, cfg, client, rest)
	case "delete":
		return deletePlanting(ctx, cfg, client, rest)
	default:
		return fmt.Errorf("unknown plantings verb %q, want list, current, create or delete", verb)
	}
}

func listPlantings(ctx context.Context, cfg *config.Config, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("plantings list", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	asJSON := fs.Bool("json", false, "emit JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tgt, err := resolveTarget(*field, "", cfg)
	if err != nil {
		return err
	}

	plantings, err := client.Plantings.List(ctx, tgt.fieldID)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(plantings)
	}
	if len(plantings) == 0 {
		fmt.Printf("No plantings in field %s\n", tgt.fieldID)
		return nil
	}
	for _, p := range plantings {
		harvest := p.HarvestDate
		if harvest == "" {
			harvest = "-"
		}
		fmt.Printf("%-12d %-16s planted %s  harvest %s\n", p.ID, p.Crop, p.PlantingDate, harvest)
	}
	return nil
}

func currentPlanting(ctx context.Context, cfg *config.Config, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("plantings current", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	tgt, err := resolveTarget(*field, "", cfg)
	if err != nil {
		return err
	}

	planting, err := client.Plantings.Current(ctx, tgt.fieldID)
	if err != nil {
		return err
	}
	return printJSON(planting)
}

func createPlanting(ctx context.Context, cfg *config.Config, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("plantings create", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	crop := fs.String("crop", "", "crop name or id")
	date := fs.String("date", "", "planting date (YYYY-MM-DD)")
	harvest := fs.String("harvest", "", "projected harvest date (YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *crop == "" || *date == "" {
		return errors.New("plantings create needs -crop and -date")
	}
	tgt, err := resolveTarget(*field, "", cfg)
	if err != nil {
		return err
	}

	planting, err := client.Plantings.Create(ctx, tgt.fieldID, awhere.Planting{
		Crop:         *crop,
		PlantingDate: *date,
		HarvestDate:  *harvest,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Created planting %d in field %s\n", planting.ID, tgt.fieldID)
	return nil
}

func deletePlanting(ctx context.Context, cfg *config.Config, client *awhere.Client, args []string) error {
	fs := flag.NewFlagSet("plantings delete", flag.ContinueOnError)
	field := fs.String("field", "", "field id (default: first of AWHERE_FIELDS)")
	id := fs.String("id", "", "planting id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("plantings delete needs -id")
	}
	plantingID, err := strconv.ParseInt(*id, 10, 64)
	if err != nil {
		return fmt.Errorf("bad -id %q", *id)
	}
	tgt, err := resolveTarget(*field, "", cfg)
	if err != nil {
		return err
	}

	if err := client.Plantings.Delete(ctx, tgt.fieldID, plantingID); err != nil {
		return err
	}
	fmt.Printf("Deleted planting %d from field %s\n", plantingID, tgt.fieldID)
	return nil
}
