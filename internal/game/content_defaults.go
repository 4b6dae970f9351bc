package game

// DefaultContent returns the built-in content tables
func DefaultContent() *Content {
	return &Content{
		StartDistrict: "favela",
		Goods: []Good{
			{ID: "cigarros", Name: "Cigarros do Paraguai", BasePrice: 50, Volatility: 10},
			{ID: "eletronicos", Name: "Eletrônicos", BasePrice: 300, Volatility: 15},
			{ID: "maconha", Name: "Maconha", BasePrice: 100, Volatility: 25, Illegal: true},
			{ID: "pilulas", Name: "Pílulas", BasePrice: 250, Volatility: 30, Illegal: true},
			{ID: "po", Name: "Pó", BasePrice: 400, Volatility: 35, Illegal: true},
			{ID: "cristal", Name: "Cristal", BasePrice: 600, Volatility: 30, Illegal: true},
			{ID: "armas", Name: "Armas", BasePrice: 800, Volatility: 20, Illegal: true},
		},
		Districts: []District{
			{ID: "favela", Name: "Favela", Faction: "comando", TravelCost: 20,
				PriceMod: map[string]int{"maconha": 80, "po": 90}},
			{ID: "centro", Name: "Centro", Faction: "bicheiros", TravelCost: 30,
				PriceMod: map[string]int{"eletronicos": 120, "cigarros": 110}},
			{ID: "porto", Name: "Porto", Faction: "cartel", TravelCost: 40,
				PriceMod: map[string]int{"po": 70, "armas": 80, "eletronicos": 85}},
			{ID: "zona_sul", Name: "Zona Sul", Faction: "playboys", TravelCost: 50,
				PriceMod: map[string]int{"po": 150, "pilulas": 140, "cristal": 130}},
			{ID: "baixada", Name: "Baixada", Faction: "milicia", TravelCost: 35,
				PriceMod: map[string]int{"armas": 120, "cigarros": 90}},
		},
		Gear: []GearDef{
			{ID: "faca", Name: "Faca", Slot: "weapon", Price: 300, Attack: 3},
			{ID: "revolver", Name: "Revólver", Slot: "weapon", Price: 2500, Attack: 8, MinLevel: 3},
			{ID: "fuzil", Name: "Fuzil", Slot: "weapon", Price: 15000, Attack: 18, MinLevel: 10},
			{ID: "colete", Name: "Colete", Slot: "armor", Price: 4000, Defense: 6, MinLevel: 2},
			{ID: "colete_pesado", Name: "Colete Pesado", Slot: "armor", Price: 20000, Defense: 14, MinLevel: 12},
			{ID: "mochila", Name: "Mochila", Slot: "bag", Price: 500, Capacity: 10},
			{ID: "mala", Name: "Mala Fundo Falso", Slot: "bag", Price: 3000, Capacity: 25, MinLevel: 5},
		},
		Vehicles: []VehicleDef{
			{ID: "moto", Name: "Moto", Price: 5000, Capacity: 10, Speed: 60},
			{ID: "sedan", Name: "Sedan", Price: 15000, Capacity: 30, Speed: 50},
			{ID: "van", Name: "Van", Price: 30000, Capacity: 80, Speed: 30},
			{ID: "esportivo", Name: "Esportivo", Price: 90000, Capacity: 15, Speed: 95},
		},
		Businesses: []BusinessDef{
			{ID: "lava_jato", Name: "Lava Jato", Price: 20000, Income: 300, WashCapacity: 10000},
			{ID: "bar", Name: "Bar", Price: 45000, Income: 700, WashCapacity: 25000, MinLevel: 4},
			{ID: "boate", Name: "Boate", Price: 120000, Income: 2000, WashCapacity: 80000, MinLevel: 8},
		},
		Recipes: []RecipeDef{
			{ID: "prensado", Inputs: map[string]int{"maconha": 3}, Output: "pilulas", OutputQty: 2, Cost: 100},
			{ID: "refino", Inputs: map[string]int{"po": 2, "pilulas": 1}, Output: "cristal", OutputQty: 2, Cost: 300},
		},
		SoloOps: []SoloOpDef{
			{ID: "furto", Name: "Furto", MinReward: 100, MaxReward: 400, Heat: 4, Risk: 20, XP: 15, Stat: "stealth", Severity: 0},
			{ID: "assalto", Name: "Assalto", MinReward: 500, MaxReward: 1500, Heat: 10, Risk: 35, XP: 35, Stat: "muscle", Severity: 1},
			{ID: "golpe", Name: "Golpe", MinReward: 800, MaxReward: 2500, Heat: 6, Risk: 40, XP: 40, Stat: "charisma", Severity: 1},
			{ID: "hackear", Name: "Hackear Caixa", MinReward: 2000, MaxReward: 6000, Heat: 12, Risk: 50, XP: 60, Stat: "brains", Severity: 2},
		},
		Heists: []HeistTemplate{
			{ID: "conveniencia", Name: "Loja de Conveniência", MinLevel: 1, Phases: 2, Difficulty: 1,
				Reward: 5000, Heat: 15, XP: 80, ReconCost: 200, LaunchCost: 0,
				Equipment: []string{"mascara"}, CrewRequired: 0, CooldownDays: 3},
			{ID: "joalheria", Name: "Joalheria", MinLevel: 5, Phases: 3, Difficulty: 2,
				Reward: 25000, Heat: 25, XP: 200, ReconCost: 1000, LaunchCost: 2000,
				Equipment: []string{"mascara", "furadeira"}, CrewRequired: 1, CooldownDays: 5},
			{ID: "carro_forte", Name: "Carro-Forte", MinLevel: 10, Phases: 4, Difficulty: 3,
				Reward: 80000, Heat: 35, XP: 500, ReconCost: 4000, LaunchCost: 8000,
				Equipment: []string{"mascara", "explosivos"}, CrewRequired: 2, CooldownDays: 7},
			{ID: "banco_central", Name: "Banco Central", MinLevel: 20, Phases: 5, Difficulty: 4,
				Reward: 300000, Heat: 50, XP: 1500, ReconCost: 15000, LaunchCost: 30000,
				Equipment: []string{"furadeira", "explosivos", "kit_hacker"}, CrewRequired: 3, CooldownDays: 14},
		},
		HeistEquipment: map[string]int{
			"mascara":    500,
			"furadeira":  3000,
			"explosivos": 8000,
			"kit_hacker": 12000,
		},
		Complications: []ComplicationDef{
			{ID: "alarme", Description: "O alarme silencioso disparou", Severity: 1},
			{ID: "refem", Description: "Um civil viu tudo e está gritando", Severity: 2},
			{ID: "viatura", Description: "Uma viatura parou na esquina", Severity: 3},
		},
		Factions: []FactionDef{
			{ID: "comando", Name: "Comando", District: "favela", HP: 60, Attack: 8, Defense: 4, Reward: 3000, Rep: 40},
			{ID: "bicheiros", Name: "Bicheiros", District: "centro", HP: 70, Attack: 9, Defense: 6, Reward: 4000, Rep: 50},
			{ID: "cartel", Name: "Cartel", District: "porto", HP: 90, Attack: 12, Defense: 8, Reward: 6000, Rep: 70},
			{ID: "playboys", Name: "Playboys", District: "zona_sul", HP: 55, Attack: 7, Defense: 5, Reward: 5000, Rep: 45},
			{ID: "milicia", Name: "Milícia", District: "baixada", HP: 110, Attack: 14, Defense: 10, Reward: 8000, Rep: 90},
		},
		Bosses: []BossDef{
			{ID: "o_patrao", Name: "O Patrão", Reward: 500000, Phases: []BossPhase{
				{Name: "Seguranças", HP: 120, Attack: 14, Defense: 8},
				{Name: "Braço Direito", HP: 160, Attack: 18, Defense: 10},
				{Name: "O Patrão", HP: 220, Attack: 22, Defense: 12},
			}},
		},
		Contacts: []ContactDef{
			{Kind: "lawyer", RecruitCost: 8000, MonthlyFee: 3000},
			{Kind: "cop", RecruitCost: 5000, MonthlyFee: 2500},
			{Kind: "judge", RecruitCost: 40000, MonthlyFee: 10000},
			{Kind: "customs", RecruitCost: 15000, MonthlyFee: 5000},
		},
		CrewRoles: []CrewRoleDef{
			{Role: "muscle", HireCost: 2000, Wage: 150, Skill: 4},
			{Role: "driver", HireCost: 2500, Wage: 180, Skill: 5},
			{Role: "hacker", HireCost: 5000, Wage: 300, Skill: 6},
			{Role: "chemist", HireCost: 6000, Wage: 350, Skill: 6},
		},
		CrewNames: []string{"Tonhão", "Baixinho", "Neguinho", "Magrão", "Careca", "Dentinho", "Zé Pequeno", "Madruga"},
		Perks: []PerkDef{
			{ID: "pulmao_de_aco", Name: "Pulmão de Aço", Cost: 2},
			{ID: "bom_de_papo", Name: "Bom de Papo", Cost: 2},
			{ID: "fantasma", Name: "Fantasma", Cost: 3},
			{ID: "contador", Name: "Contador", Cost: 3},
		},
		VillaModules: map[string]int{
			ModuleTunnel:  40000,
			ModuleHelipad: 60000,
			ModuleVault:   30000,
			ModuleLab:     50000,
		},
		WeekEvents: []WeekEventDef{
			{ID: "carnaval", Name: "Carnaval", PriceMod: 30},
			{ID: "operacao_policial", Name: "Operação Policial", ArrestMod: 10},
			{ID: "guerra_de_faccoes", Name: "Guerra de Facções", RewardMod: 100},
		},
		StreetEvents: []StreetEventDef{
			{ID: "carteira", Description: "Você achou uma carteira no chão", Money: 200},
			{ID: "batida", Description: "Blitz na avenida, você teve que dar um jeito", Money: -300, Heat: 3},
			{ID: "briga", Description: "Confusão no boteco acabou em soco", HP: -10},
		},
		PopupEvents: []PopupEventDef{
			{ID: "faccao_proposta", Kind: "faction", Description: "Uma facção rival propõe uma trégua paga", Choices: []PopupChoice{
				{Label: "Pagar", Money: -2000, Rep: -5},
				{Label: "Recusar", Rep: 10, Heat: 5},
			}},
			{ID: "npc_vizinha", Kind: "npc", Description: "A vizinha pede ajuda com o aluguel", Choices: []PopupChoice{
				{Label: "Ajudar", Money: -500, Karma: 10},
				{Label: "Ignorar", Karma: -5},
			}},
			{ID: "crew_aumento", Kind: "crew", Description: "A equipe quer um bônus", Choices: []PopupChoice{
				{Label: "Pagar bônus", Money: -1000, Loyalty: 15},
				{Label: "Negar", Loyalty: -15},
			}},
		},
		Achievements: []AchievementDef{
			{ID: "primeiro_milhao", Name: "Primeiro Milhão", Reward: 10000},
			{ID: "fugitivo", Name: "Fugitivo", Reward: 2000},
			{ID: "dono_da_rua", Name: "Dono da Rua", Reward: 5000},
			{ID: "mestre_do_roubo", Name: "Mestre do Roubo", Reward: 8000},
			{ID: "lavanderia", Name: "Lavanderia", Reward: 3000},
			{ID: "sobrevivente", Name: "Sobrevivente", Reward: 1000},
		},
		Challenges: []ChallengeDef{
			{ID: "comerciante", Metric: MetricTrades, Goal: 25},
			{ID: "lutador", Metric: MetricFightsWon, Goal: 10},
			{ID: "ladrao", Metric: MetricHeists, Goal: 5},
			{ID: "magnata", Metric: MetricNetWorth, Goal: 250000},
		},
		Weather:      []string{"sol", "nublado", "chuva", "calor"},
		Headlines:    []string{"Polícia promete endurecer", "Preço do pó dispara", "Milícia avança na Baixada", "Carnaval bate recorde"},
		NemesisNames: []string{"Coringa", "Sombra", "Capitão Nascimento"},
	}
}
