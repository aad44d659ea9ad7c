package directory

import (
	"github.com/golazo/once-server-go/internal/formation"
	"github.com/golazo/once-server-go/internal/game"
	"github.com/golazo/once-server-go/internal/roles"
)

// Built-in Argentine dataset so the server runs without a database.

func seedClubs() []string {
	return []string{
		"River Plate",
		"Boca Juniors",
		"Independiente",
		"Racing Club",
		"San Lorenzo",
		"Huracán",
		"Vélez Sarsfield",
		"Estudiantes",
		"Gimnasia",
		"Newell's Old Boys",
		"Rosario Central",
		"Lanús",
	}
}

func seedPlayers() []game.Player {
	return []game.Player{
		{Name: "Franco Armani", Club: "River Plate", Position: "arquero"},
		{Name: "Gonzalo Montiel", Club: "River Plate", Position: "lateral derecho"},
		{Name: "Enzo Pérez", Club: "River Plate", Position: "volante de contencion"},
		{Name: "Julián Álvarez", Club: "River Plate", Position: "delantero centro"},

		{Name: "Sergio Romero", Club: "Boca Juniors", Position: "arquero"},
		{Name: "Frank Fabra", Club: "Boca Juniors", Position: "lateral izquierdo"},
		{Name: "Juan Román Riquelme", Club: "Boca Juniors", Position: "enganche"},
		{Name: "Carlos Tevez", Club: "Boca Juniors", Position: "delantero"},

		{Name: "Ricardo Bochini", Club: "Independiente", Position: "enganche"},
		{Name: "Sergio Agüero", Club: "Independiente", Position: "delantero centro"},
		{Name: "Gabriel Milito", Club: "Independiente", Position: "defensor central"},

		{Name: "Gabriel Arias", Club: "Racing Club", Position: "arquero"},
		{Name: "Iván Pillud", Club: "Racing Club", Position: "lateral derecho"},
		{Name: "Diego Milito", Club: "Racing Club", Position: "delantero centro"},

		{Name: "Sebastián Torrico", Club: "San Lorenzo", Position: "arquero"},
		{Name: "Néstor Ortigoza", Club: "San Lorenzo", Position: "volante de contencion"},
		{Name: "Ángel Correa", Club: "San Lorenzo", Position: "delantero"},

		{Name: "Marcos Díaz", Club: "Huracán", Position: "arquero"},
		{Name: "Carlos Babington", Club: "Huracán", Position: "enganche"},
		{Name: "Patricio Toranzo", Club: "Huracán", Position: "mediocampista"},

		{Name: "Marcelo Barovero", Club: "Vélez Sarsfield", Position: "arquero"},
		{Name: "Sebastián Domínguez", Club: "Vélez Sarsfield", Position: "defensor central"},
		{Name: "Mauro Zárate", Club: "Vélez Sarsfield", Position: "delantero"},

		{Name: "Mariano Andújar", Club: "Estudiantes", Position: "arquero"},
		{Name: "Marcos Rojo", Club: "Estudiantes", Position: "defensor"},
		{Name: "Juan Sebastián Verón", Club: "Estudiantes", Position: "mediocampista central"},

		{Name: "Guillermo Barros Schelotto", Club: "Gimnasia", Position: "delantero"},
		{Name: "Brahian Alemán", Club: "Gimnasia", Position: "mediocampista"},

		{Name: "Maxi Rodríguez", Club: "Newell's Old Boys", Position: "volante derecho"},
		{Name: "Ignacio Scocco", Club: "Newell's Old Boys", Position: "delantero centro"},
		{Name: "Gerardo Martino", Club: "Newell's Old Boys", Position: "mediocampista"},

		{Name: "Marco Ruben", Club: "Rosario Central", Position: "delantero centro"},
		{Name: "Ángel Di María", Club: "Rosario Central", Position: "extremo derecho"},

		{Name: "Agustín Marchesín", Club: "Lanús", Position: "arquero"},
		{Name: "José Sand", Club: "Lanús", Position: "delantero centro"},
		{Name: "Lautaro Acosta", Club: "Lanús", Position: "extremo derecho"},
	}
}

func seedLayouts() []formation.Layout {
	return []formation.Layout{
		formation.Default(),
		{
			Name: "4-3-3",
			Slots: []formation.Slot{
				{ID: 0, Role: roles.RoleGoalkeeper},
				{ID: 1, Role: roles.RoleLeftBack},
				{ID: 2, Role: roles.RoleCenterBack},
				{ID: 3, Role: roles.RoleCenterBack},
				{ID: 4, Role: roles.RoleRightBack},
				{ID: 5, Role: roles.RoleDefensiveMid},
				{ID: 6, Role: roles.RoleCenterMid},
				{ID: 7, Role: roles.RoleAttackingMid},
				{ID: 8, Role: roles.RoleLeftWing},
				{ID: 9, Role: roles.RoleStriker},
				{ID: 10, Role: roles.RoleRightWing},
			},
		},
		{
			Name: "3-5-2",
			Slots: []formation.Slot{
				{ID: 0, Role: roles.RoleGoalkeeper},
				{ID: 1, Role: roles.RoleCenterBack},
				{ID: 2, Role: roles.RoleCenterBack},
				{ID: 3, Role: roles.RoleCenterBack},
				{ID: 4, Role: roles.RoleLeftMid},
				{ID: 5, Role: roles.RoleDefensiveMid},
				{ID: 6, Role: roles.RoleCenterMid},
				{ID: 7, Role: roles.RoleAttackingMid},
				{ID: 8, Role: roles.RoleRightMid},
				{ID: 9, Role: roles.RoleStriker},
				{ID: 10, Role: roles.RoleStriker},
			},
		},
	}
}
