package bot

// Template names, relative to the templates directory
const (
	tmplArmy         = "menu/bt_army.png"
	tmplArmyOpen     = "menu/army_open_true.png"
	tmplAttack       = "menu/bt_atk.png"
	tmplCancel       = "menu/bt_cancel.png"
	tmplClose        = "menu/bt_close.png"
	tmplOK           = "menu/bt_ok.png"
	tmplChat         = "menu/bt_chat.png"
	tmplCloseChat    = "menu/bt_close_chat.png"
	tmplTroopsCreate = "menu/open_troops_create.png"

	tmplSettings     = "menu/bt_config.png"
	tmplMoreSettings = "menu/more_settings.png"
	tmplBarSizeMenu  = "menu/ajust_bar_size.png"
	tmplBarSize      = "menu/bt_bar_size.png"
	tmplEnglishOK    = "menu/english_ok.png"
	tmplLanguage     = "menu/bt_language.png"
	tmplEnglish      = "menu/bt_english.png"
	tmplDragLanguage = "menu/drag_language.png"
	tmplOKAll        = "menu/bt_ok_all.png"

	tmplDeleteCastle  = "delete_army/delete_castle.png"
	tmplDeleteMachine = "delete_army/delete_machine.png"
	tmplDeleteSpell   = "delete_army/delete_spell.png"
	tmplDeleteTroop   = "delete_army/delete_troop.png"

	tmplDonateCastle     = "donate/donate_castle.png"
	tmplDonateSuperTroop = "donate/select_super_troop_donate.png"
	tmplDonateSpell      = "donate/select_spell_donate.png"
	tmplDonateTroop      = "donate/select_troop_donate.png"
	tmplRequestCastle    = "donate/request_castle.png"
	tmplSendTroops       = "donate/send_troops.png"
)

// Match thresholds
const (
	menuThreshold    = 0.85
	createThreshold  = 0.8
	troopThreshold   = 0.75
	villageThreshold = 0.7
)

// TroopKind is the templates subdirectory holding troop icons
const TroopKind = "troops"
